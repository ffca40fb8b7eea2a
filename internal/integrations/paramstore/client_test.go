package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	getOut *ssm.GetParameterOutput
	getErr error
	lastIn *ssm.GetParameterInput
}

func (f *fakeAPI) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.lastIn = in
	return f.getOut, f.getErr
}

func strPtr(s string) *string { return &s }

func withValue(v string) *fakeAPI {
	return &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Name: strPtr("p"), Value: strPtr(v), Type: types.ParameterTypeSecureString,
	}}}
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.ErrorContains(t, err, "must not be nil")
}

func TestGetParameter_RequestsDecryption(t *testing.T) {
	api := withValue(`{"token":"sk"}`)
	client, err := New(api)
	require.NoError(t, err)

	v, err := client.GetParameter(context.Background(), " /chat/open-ai-token ")
	require.NoError(t, err)
	require.Equal(t, `{"token":"sk"}`, v)
	require.Equal(t, "/chat/open-ai-token", *api.lastIn.Name)
	require.True(t, *api.lastIn.WithDecryption)
}

func TestGetParameter_Errors(t *testing.T) {
	_, err := (&Client{}).GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "not initialized")

	client, err := New(&fakeAPI{})
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "  ")
	require.ErrorContains(t, err, "required")

	client, err = New(&fakeAPI{getErr: errors.New("boom")})
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "boom")

	client, err = New(&fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: strPtr("p")}}})
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "missing value")
}

func TestToken(t *testing.T) {
	client, err := New(withValue(`{"token":"sk-from-ssm"}`))
	require.NoError(t, err)
	token, err := client.Token(context.Background(), "/chat/open-ai-token")
	require.NoError(t, err)
	require.Equal(t, "sk-from-ssm", token)
}

func TestToken_InvalidPayloads(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  string
	}{
		{name: "malformed", value: `{"broken`, want: "unmarshal"},
		{name: "missing field", value: `{"other":"value"}`, want: "empty"},
		{name: "blank token", value: `{"token":"  "}`, want: "empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, err := New(withValue(tc.value))
			require.NoError(t, err)
			_, err = client.Token(context.Background(), "/chat/open-ai-token")
			require.ErrorContains(t, err, tc.want)
		})
	}
}
