package signature

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigningString(t *testing.T) {
	t.Run("Inbox delivery", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("Host", "example.com")
		headers.Set("Date", "Sun, 06 Nov 2021 08:49:37 GMT")

		got, err := SigningString(
			[]string{"(request-target)", "Host", "Date"},
			headers,
			InboxRequestTarget("alice"),
			MissingHeaderLenient,
		)
		require.NoError(t, err)
		assert.Equal(t, "(request-target): post /users/alice/inbox\nhost: example.com\ndate: Sun, 06 Nov 2021 08:49:37 GMT", got)
	})

	t.Run("Mastodon delivery", func(t *testing.T) {
		headers := http.Header{
			"Host":         {"ap.rens.page"},
			"Date":         {"Mon, 04 Sep 2023 20:49:38 GMT"},
			"Digest":       {"SHA-256=x0QZ2hdf3slWOdA4/DyxLEv4uEzU/FgjP9ho8EzR8sk="},
			"Content-Type": {"application/activity+json"},
		}

		got, err := SigningString(
			[]string{"(request-target)", "host", "date", "digest", "content-type"},
			headers,
			InboxRequestTarget("test2"),
			MissingHeaderLenient,
		)
		require.NoError(t, err)
		assert.Equal(t, "(request-target): post /users/test2/inbox\n"+
			"host: ap.rens.page\n"+
			"date: Mon, 04 Sep 2023 20:49:38 GMT\n"+
			"digest: SHA-256=x0QZ2hdf3slWOdA4/DyxLEv4uEzU/FgjP9ho8EzR8sk=\n"+
			"content-type: application/activity+json", got)
	})

	t.Run("Request target is never read from headers", func(t *testing.T) {
		headers := http.Header{"(request-target)": {"get /evil"}}

		got, err := SigningString([]string{"(Request-Target)"}, headers, "post /users/bob/inbox", MissingHeaderStrict)
		require.NoError(t, err)
		assert.Equal(t, "(request-target): post /users/bob/inbox", got)
	})

	t.Run("Non canonical header keys", func(t *testing.T) {
		headers := http.Header{"x-custom-thing": {"v"}}

		got, err := SigningString([]string{"X-Custom-Thing"}, headers, "", MissingHeaderStrict)
		require.NoError(t, err)
		assert.Equal(t, "x-custom-thing: v", got)
	})

	t.Run("Multiple values are joined", func(t *testing.T) {
		headers := http.Header{}
		headers.Add("Cache-Control", "max-age=60")
		headers.Add("Cache-Control", "must-revalidate")

		got, err := SigningString([]string{"cache-control"}, headers, "", MissingHeaderLenient)
		require.NoError(t, err)
		assert.Equal(t, "cache-control: max-age=60, must-revalidate", got)
	})

	t.Run("Missing header lenient", func(t *testing.T) {
		got, err := SigningString([]string{"date", "digest"}, http.Header{"Date": {"d"}}, "", MissingHeaderLenient)
		require.NoError(t, err)
		assert.Equal(t, "date: d\ndigest: ", got)
	})

	t.Run("Missing header strict", func(t *testing.T) {
		_, err := SigningString([]string{"date", "digest"}, http.Header{"Date": {"d"}}, "", MissingHeaderStrict)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingHeader)
		assert.Contains(t, err.Error(), "digest")
	})

	t.Run("Deterministic", func(t *testing.T) {
		headers := http.Header{"Host": {"h"}, "Date": {"d"}}
		covered := []string{"date", "host"}

		first, err := SigningString(covered, headers, "", MissingHeaderLenient)
		require.NoError(t, err)
		second, err := SigningString(covered, headers, "", MissingHeaderLenient)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, "date: d\nhost: h", first)
	})
}

func TestRequestTargetOf(t *testing.T) {
	assert.Equal(t, "post /users/alice/inbox", RequestTargetOf("POST", "/users/alice/inbox"))
	assert.Equal(t, "get /users/alice?page=1", RequestTargetOf("GET", "/users/alice?page=1"))
	assert.Equal(t, "get /", RequestTargetOf("GET", ""))
}

func TestMissingHeaderPolicyString(t *testing.T) {
	assert.Equal(t, "lenient", MissingHeaderLenient.String())
	assert.Equal(t, "strict", MissingHeaderStrict.String())
	assert.Equal(t, "MissingHeaderPolicy(7)", MissingHeaderPolicy(7).String())
}
