package services

import (
	"fmt"
	"net/url"
)

// BaseURLResolver absolutizes paths against the service's public base URL.
type BaseURLResolver struct {
	base *url.URL
}

func NewBaseURLResolver(base string) (*BaseURLResolver, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("base url %q is not absolute", base)
	}
	return &BaseURLResolver{base: u}, nil
}

func (r *BaseURLResolver) Absolute(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	return r.base.ResolveReference(ref).String(), nil
}
