package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const sessionIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func GetAppName() string {
	return "AutoCert LMS"
}

func GenerateNChar(n int) (string, error) {
	id, err := gonanoid.New(n)
	if err != nil {
		return "", err
	}
	return id, nil
}

// NewSessionID returns a 16 character lowercase id safe for urls and object keys.
func NewSessionID() (string, error) {
	return gonanoid.Generate(sessionIDAlphabet, 16)
}
