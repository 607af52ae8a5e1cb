package validation

import "encoding/json"

// Credentials is a decoded login request.
type Credentials struct {
	Login      string
	Credential string
}

type loginPayload struct {
	Login      *string `json:"kadi"`
	Credential *string `json:"sifre"`
}

// DecodeLogin parses a login request. Both fields are required strings.
func DecodeLogin(data []byte) (*Credentials, error) {
	var p loginPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, malformed(err)
	}

	var missing fieldSet
	if p.Login == nil {
		missing = append(missing, "kadi")
	}
	if p.Credential == nil {
		missing = append(missing, "sifre")
	}
	if len(missing) > 0 {
		return nil, malformed(nil, missing...)
	}
	return &Credentials{Login: *p.Login, Credential: *p.Credential}, nil
}
