package models

import "fmt"

// Kind selects the scrape campaign: profile details or post engagement.
type Kind string

const (
	KindProfile Kind = "profile"
	KindPost    Kind = "post"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindProfile, KindPost:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown campaign kind %q (want profile or post)", s)
	}
}

func (k Kind) String() string {
	return string(k)
}
