package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	out   *ssm.GetParameterOutput
	err   error
	calls int
	last  *ssm.GetParameterInput
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls++
	f.last = in
	return f.out, f.err
}

func TestGetParameter_DecryptsAndCaches(t *testing.T) {
	api := &fakeSSM{out: &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Name:  aws.String("/mensor/prod/gemini-api-key"),
		Value: aws.String("secret"),
		Type:  types.ParameterTypeSecureString,
	}}}
	s, err := New(api)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		v, err := s.GetParameter(context.Background(), " /mensor/prod/gemini-api-key ")
		require.NoError(t, err)
		require.Equal(t, "secret", v)
	}
	require.Equal(t, 1, api.calls)
	require.Equal(t, "/mensor/prod/gemini-api-key", aws.ToString(api.last.Name))
	require.True(t, aws.ToBool(api.last.WithDecryption))
}

func TestGetParameter_Errors(t *testing.T) {
	tests := []struct {
		name    string
		api     *fakeSSM
		param   string
		wantErr string
	}{
		{"empty name", &fakeSSM{}, "  ", "required"},
		{"api failure", &fakeSSM{err: errors.New("AccessDenied")}, "p", "AccessDenied"},
		{"missing value", &fakeSSM{out: &ssm.GetParameterOutput{Parameter: &types.Parameter{}}}, "p", "no value"},
		{"nil output", &fakeSSM{}, "p", "no value"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := New(tc.api)
			require.NoError(t, err)
			_, err = s.GetParameter(context.Background(), tc.param)
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}
