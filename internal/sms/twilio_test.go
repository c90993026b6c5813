package sms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/membercast/internal/model"
)

type staticCreds struct {
	settings model.TwilioSettings
	err      error
}

func (s staticCreds) TwilioSettings(ctx context.Context) (model.TwilioSettings, error) {
	return s.settings, s.err
}

var configured = model.TwilioSettings{AccountSID: "AC123", AuthToken: "secret", PhoneNumber: "+46700000000"}

func TestTwilioClient_Success(t *testing.T) {
	var gotFrom, gotTo, gotBody, gotUser, gotPass, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotPath = r.URL.Path
		gotFrom, gotTo, gotBody = r.PostForm.Get("From"), r.PostForm.Get("To"), r.PostForm.Get("Body")
		gotUser, gotPass, _ = r.BasicAuth()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM42","status":"queued"}`))
	}))
	defer srv.Close()

	creds := configured
	creds.SenderID = "Masjid"
	c := NewTwilioClient(srv.URL, 5*time.Second, staticCreds{settings: creds}, zap.NewNop())

	res, err := c.SendSMS(context.Background(), "+46701234567", "Eid Mubarak")

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "SM42", res.MessageID)
	assert.Equal(t, "SMS sent successfully to +46701234567", res.Message)
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", gotPath)
	assert.Equal(t, "Masjid", gotFrom, "sender id is preferred over the phone number")
	assert.Equal(t, "+46701234567", gotTo)
	assert.Equal(t, "Eid Mubarak", gotBody)
	assert.Equal(t, "AC123", gotUser)
	assert.Equal(t, "secret", gotPass)
}

func TestTwilioClient_ErrorCodes(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"code":21211,"message":"The 'To' number is not valid","status":400}`, "Invalid phone number format"},
		{`{"code":21608,"message":"unverified","status":400}`, "The phone number is not verified for trial accounts"},
		{`{"code":21614,"message":"x","status":400}`, "Invalid sender ID"},
		{`{"code":20003,"message":"Authenticate","status":401}`, "Authentication failed - check your Account SID and Auth Token"},
		{`{"code":30007,"message":"Message filtered","status":400}`, "Message filtered"},
		{`{}`, "Failed to send SMS"},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(tc.body))
		}))
		c := NewTwilioClient(srv.URL, 5*time.Second, staticCreds{settings: configured}, nil)

		res, err := c.SendSMS(context.Background(), "+1", "hi")

		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, tc.want, res.Message)
		srv.Close()
	}
}

func TestTwilioClient_MissingCredentials(t *testing.T) {
	c := NewTwilioClient("http://127.0.0.1:0", time.Second, staticCreds{}, nil)
	res, err := c.SendSMS(context.Background(), "+1", "hi")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "Account SID and Auth Token are required")

	c = NewTwilioClient("http://127.0.0.1:0", time.Second, staticCreds{settings: model.TwilioSettings{AccountSID: "AC", AuthToken: "t"}}, nil)
	res, err = c.SendSMS(context.Background(), "+1", "hi")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "Phone Number or Sender ID is required")
}

func TestTwilioClient_TransportAndSettingsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewTwilioClient(url, time.Second, staticCreds{settings: configured}, nil)
	_, err := c.SendSMS(context.Background(), "+1", "hi")
	assert.Error(t, err)

	c = NewTwilioClient(url, time.Second, staticCreds{err: errors.New("db locked")}, nil)
	_, err = c.SendSMS(context.Background(), "+1", "hi")
	assert.ErrorContains(t, err, "db locked")
}

func TestMock(t *testing.T) {
	m := &Mock{
		Reject: map[string]string{"+2": "Invalid phone number format"},
		Errors: map[string]error{"+3": errors.New("timeout")},
	}

	res, err := m.SendSMS(context.Background(), "+1", "a")
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, err = m.SendSMS(context.Background(), "+2", "b")
	require.NoError(t, err)
	assert.False(t, res.Success)

	_, err = m.SendSMS(context.Background(), "+3", "c")
	assert.EqualError(t, err, "timeout")

	assert.Equal(t, []SentMessage{{To: "+1", Body: "a"}}, m.Sent())
}
