// Package paramstore reads secrets from AWS SSM Parameter Store.
package paramstore

import (
	"context"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/pkg/errors"
)

// ssmAPI is the part of *ssm.Client the store calls.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Store fetches decrypted parameter values and caches them for the life of
// the process.
type Store struct {
	api ssmAPI

	mu    sync.Mutex
	cache map[string]string
}

func New(api ssmAPI) (*Store, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Store{api: api, cache: make(map[string]string)}, nil
}

func (s *Store) GetParameter(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: name is required")
	}

	s.mu.Lock()
	v, ok := s.cache[name]
	s.mu.Unlock()
	if ok {
		return v, nil
	}

	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", errors.Wrapf(err, "paramstore: get parameter %q", name)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", errors.Errorf("paramstore: parameter %q has no value", name)
	}

	v = aws.ToString(out.Parameter.Value)
	s.mu.Lock()
	s.cache[name] = v
	s.mu.Unlock()
	return v, nil
}
