package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/nbshell/internal/apperr"
	"github.com/starford/nbshell/internal/models"
	"github.com/starford/nbshell/internal/testutil"
)

func TestTicket_StringBody(t *testing.T) {
	fake := testutil.NewFakeUpstream(t)
	fake.SetTicket(http.StatusOK, `{"status":"OK","message":"","body":"T123"}`)

	c, err := New(fake.URL(), time.Second)
	require.NoError(t, err)

	got, err := c.Ticket(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "T123", got)
}

func TestTicket_ObjectBody(t *testing.T) {
	fake := testutil.NewFakeUpstream(t)
	fake.SetTicket(http.StatusOK, `{"status":"OK","body":{"principal":"admin","ticket":"abc"}}`)

	c, err := New(fake.URL(), time.Second)
	require.NoError(t, err)

	got, err := c.Ticket(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}

func TestTicket_Failures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"forbidden", http.StatusForbidden, `{"status":"FORBIDDEN"}`, apperr.ErrTransport},
		{"server error", http.StatusInternalServerError, ``, apperr.ErrTransport},
		{"not json", http.StatusOK, `<html>`, apperr.ErrMalformedResponse},
		{"missing body", http.StatusOK, `{"status":"OK"}`, apperr.ErrMalformedResponse},
		{"null body", http.StatusOK, `{"status":"OK","body":null}`, apperr.ErrMalformedResponse},
		{"empty ticket", http.StatusOK, `{"status":"OK","body":""}`, apperr.ErrMalformedResponse},
		{"numeric body", http.StatusOK, `{"status":"OK","body":42}`, apperr.ErrMalformedResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := testutil.NewFakeUpstream(t)
			fake.SetTicket(tc.status, tc.body)
			c, err := New(fake.URL(), time.Second)
			require.NoError(t, err)

			_, err = c.Ticket(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v, want %v", err, tc.want)
		})
	}
}

func TestTicket_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL + "/api"
	srv.Close()

	c, err := New(base, time.Second)
	require.NoError(t, err)
	_, err = c.Ticket(context.Background())
	assert.ErrorIs(t, err, apperr.ErrTransport)
}

func TestLogin_FormEncoded(t *testing.T) {
	fake := testutil.NewFakeUpstream(t)
	fake.AddUser("admin", "s3cret")

	c, err := New(fake.URL(), time.Second)
	require.NoError(t, err)

	ticket, err := c.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "ticket-admin", ticket)

	form, ctype := fake.LastLogin()
	assert.Equal(t, "application/x-www-form-urlencoded", ctype)
	assert.Equal(t, map[string]string{"userName": "admin", "password": "s3cret"}, form)

	_, err = c.Login(context.Background(), "admin", "wrong")
	assert.ErrorIs(t, err, apperr.ErrTransport)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestLogin_ServerErrorIsNotUnauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/api", time.Second)
	require.NoError(t, err)
	_, err = c.Login(context.Background(), "admin", "pw")
	assert.ErrorIs(t, err, apperr.ErrTransport)
	assert.NotErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestNotebooks(t *testing.T) {
	fake := testutil.NewFakeUpstream(t)
	fake.SetNotes(
		testutil.Note{ID: "n1", Name: "Ops/Disk"},
		testutil.Note{ID: "n2", Name: "Scratch"},
	)
	c, err := New(fake.URL(), time.Second)
	require.NoError(t, err)

	got, err := c.Notebooks(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, []models.NotebookRecord{
		{ID: "n1", DisplayName: "Disk", CategoryName: "Ops"},
		{ID: "n2", DisplayName: "Scratch"},
	}, got)

	_, err = c.Notebooks(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrTransport)
}

func TestRecordFromName(t *testing.T) {
	assert.Equal(t, models.NotebookRecord{ID: "a", DisplayName: "B/C", CategoryName: "A"}, RecordFromName("a", "/A/B/C"))
	assert.Equal(t, models.NotebookRecord{ID: "a", DisplayName: "solo"}, RecordFromName("a", "solo"))
}

func TestNew_InvalidBase(t *testing.T) {
	_, err := New("not a url", time.Second)
	assert.Error(t, err)
}
