package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/membercast/internal/controller"
	"github.com/unclebandit/membercast/internal/db"
	"github.com/unclebandit/membercast/internal/model"
	"github.com/unclebandit/membercast/internal/queue"
	"github.com/unclebandit/membercast/internal/repository"
	"github.com/unclebandit/membercast/internal/service"
	"github.com/unclebandit/membercast/internal/session"
	"github.com/unclebandit/membercast/internal/sms"
	"github.com/unclebandit/membercast/internal/translate"
)

type stubTranslator struct{}

func (stubTranslator) Translate(ctx context.Context, req translate.Request) translate.Result {
	return translate.Result{Success: true, TranslatedText: strings.ToUpper(req.Text)}
}

type testServer struct {
	srv    *httptest.Server
	client *sms.Mock
	queue  *queue.InMemoryQueue
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite, ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	memberRepo := &repository.MemberRepository{DB: conn}
	client := &sms.Mock{}
	q := queue.NewInMemoryQueue(nil)

	members := &service.MemberService{MemberRepo: memberRepo}
	settings := &service.SettingsService{SettingsRepo: &repository.SettingsRepository{DB: conn}}
	campaigns := &service.CampaignService{
		CampaignRepo: &repository.CampaignRepository{DB: conn},
		MemberRepo:   memberRepo,
		OutboundRepo: &repository.OutboundMessageRepository{DB: conn},
		Sender:       &service.Sender{Client: client},
		Queue:        q,
	}
	require.NoError(t, queue.StartCampaignSendSubscriber(context.Background(), q, campaigns, nil))

	mc := &controller.MemberController{MemberService: members}
	ic := &controller.ImportController{MemberService: members, Sessions: session.NewMemoryStore(time.Hour)}
	cc := &controller.CampaignController{CampaignService: campaigns}
	sc := &controller.SettingsController{SettingsService: settings}
	smsc := &controller.SMSController{CampaignService: campaigns}
	tc := &controller.TranslateController{Translator: stubTranslator{}}

	r := chi.NewRouter()
	r.Get("/members", mc.ListMembers)
	r.Post("/members", mc.CreateMember)
	r.Get("/members/export", mc.ExportMembers)
	r.Get("/members/{id}", mc.GetMember)
	r.Put("/members/{id}", mc.UpdateMember)
	r.Delete("/members/{id}", mc.DeleteMember)
	r.Post("/imports/file", ic.UploadFile)
	r.Post("/imports/text", ic.ParseText)
	r.Post("/imports/{session}/commit", ic.Commit)
	r.Post("/campaigns", cc.CreateCampaign)
	r.Get("/campaigns", cc.ListCampaigns)
	r.Get("/campaigns/{id}", cc.GetCampaignDetails)
	r.Delete("/campaigns/{id}", cc.DeleteCampaign)
	r.Post("/campaigns/{id}/send", cc.SendCampaign)
	r.Get("/stats", cc.DashboardStats)
	r.Get("/settings/twilio", sc.GetTwilio)
	r.Put("/settings/twilio", sc.SaveTwilio)
	r.Get("/settings/{key}", sc.GetSetting)
	r.Put("/settings/{key}", sc.SetSetting)
	r.Post("/sms/send", smsc.SendSMS)
	r.Post("/sms/test", smsc.SendTest)
	r.Post("/translate", tc.Translate)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, client: client, queue: q}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestMembersCRUD(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/members", model.MemberInput{FirstName: "Anna", LastName: "Berg", Phone: "+46 70 111"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.Member](t, resp)
	assert.NotZero(t, created.ID)

	resp = ts.do(t, http.MethodPost, "/members", model.MemberInput{FirstName: "Dup", LastName: "X", Phone: "+46 70 111"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/members", model.MemberInput{FirstName: "Bad", LastName: "X", Phone: "call me"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPut, "/members/"+itoa(created.ID), model.MemberInput{FirstName: "Anna", LastName: "Lind", Phone: "+46 70 111"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Lind", decode[model.Member](t, resp).LastName)

	resp = ts.do(t, http.MethodGet, "/members", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]model.Member](t, resp), 1)

	resp = ts.do(t, http.MethodDelete, "/members/"+itoa(created.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/members/"+itoa(created.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/members/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestImportPreviewAndCommit(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/members", model.MemberInput{FirstName: "Omar", LastName: "Ali", Phone: "070222", City: "Stockholm"})

	text := "FirstName;LastName;SocialNumber;Address;PostalCode;City;Mobile\n" +
		"Anna;Berg;;;;Malmö;0701\n" +
		"Omar;Ali;;;;Lund;070-222\n"
	resp := ts.do(t, http.MethodPost, "/imports/text", map[string]string{"text": text})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	preview := decode[struct {
		SessionID  string                  `json:"session_id"`
		Parsed     []model.ParsedMember    `json:"parsed_data"`
		Duplicates []model.DuplicateMember `json:"duplicates"`
	}](t, resp)
	require.NotEmpty(t, preview.SessionID)
	assert.Len(t, preview.Parsed, 1)
	require.Len(t, preview.Duplicates, 1)
	assert.Equal(t, "Stockholm", preview.Duplicates[0].Existing.City)

	resp = ts.do(t, http.MethodPost, "/imports/"+preview.SessionID+"/commit", map[string]string{"duplicate_handling": "merge"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/imports/"+preview.SessionID+"/commit", map[string]string{"duplicate_handling": "overwrite"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[service.BulkResult](t, resp)
	assert.Equal(t, 2, res.SuccessCount)

	resp = ts.do(t, http.MethodPost, "/imports/"+preview.SessionID+"/commit", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	members := decode[[]model.Member](t, ts.do(t, http.MethodGet, "/members", nil))
	require.Len(t, members, 2)
	assert.Equal(t, "Lund", members[1].City)
}

func TestImportCommit_ConcurrentAppliesOnce(t *testing.T) {
	ts := newTestServer(t)
	text := "FirstName;LastName;SocialNumber;Address;PostalCode;City;Mobile\n" +
		"Anna;Berg;;;;Malmö;0701\n"
	resp := ts.do(t, http.MethodPost, "/imports/text", map[string]string{"text": text})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	preview := decode[struct {
		SessionID string `json:"session_id"`
	}](t, resp)

	const n = 6
	statuses := make([]int, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body := strings.NewReader(`{"duplicate_handling":"keep-both"}`)
			r, err := http.Post(ts.srv.URL+"/imports/"+preview.SessionID+"/commit", "application/json", body)
			if err != nil {
				return
			}
			r.Body.Close()
			statuses[i] = r.StatusCode
		}()
	}
	wg.Wait()

	ok := 0
	for _, code := range statuses {
		if code == http.StatusOK {
			ok++
		} else {
			assert.Equal(t, http.StatusNotFound, code)
		}
	}
	assert.Equal(t, 1, ok)

	members := decode[[]model.Member](t, ts.do(t, http.MethodGet, "/members", nil))
	assert.Len(t, members, 1)
}

func TestImportFileUpload(t *testing.T) {
	ts := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "members.txt")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("hello"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.srv.URL+"/imports/file", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0], "Invalid file type")

	resp2, err := http.Post(ts.srv.URL+"/imports/file", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestCampaignLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/members", model.MemberInput{FirstName: "Anna", LastName: "Berg", Phone: "+46701"})
	ts.do(t, http.MethodPost, "/members", model.MemberInput{FirstName: "Bilal", LastName: "Ali", Phone: "+46702"})
	ts.client.Reject = map[string]string{"+46702": "Invalid phone number format"}

	resp := ts.do(t, http.MethodPost, "/campaigns", map[string]string{"title": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/campaigns", map[string]string{"title": "Eid", "message": "Eid prayer 07:30"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	c := decode[model.Campaign](t, resp)

	resp = ts.do(t, http.MethodPost, "/campaigns/"+itoa(c.ID)+"/send", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[service.SendResult](t, resp)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 1, res.ErrorCount)
	assert.Equal(t, "Campaign completed: 1 sent, 1 failed", res.Message)

	resp = ts.do(t, http.MethodPost, "/campaigns/"+itoa(c.ID)+"/send", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/campaigns/"+itoa(c.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	details := decode[service.CampaignDetails](t, resp)
	assert.Equal(t, model.StatusSent, details.Status)
	assert.Equal(t, 2, details.Stats["total"])

	resp = ts.do(t, http.MethodGet, "/campaigns?page=1&page_size=10&status=sent", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[struct {
		Data       []model.Campaign `json:"data"`
		Pagination map[string]int   `json:"pagination"`
	}](t, resp)
	assert.Len(t, list.Data, 1)
	assert.Equal(t, 1, list.Pagination["total_count"])

	resp = ts.do(t, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[map[string]int](t, resp)
	assert.Equal(t, map[string]int{"totalMembers": 2, "recentCampaigns": 1, "totalMessagesSent": 1}, stats)

	resp = ts.do(t, http.MethodDelete, "/campaigns/"+itoa(c.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = ts.do(t, http.MethodGet, "/campaigns/"+itoa(c.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCampaignAsyncSend(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/members", model.MemberInput{FirstName: "Anna", LastName: "Berg", Phone: "+46701"})
	c := decode[model.Campaign](t, ts.do(t, http.MethodPost, "/campaigns", map[string]string{"title": "T", "message": "M"}))

	resp := ts.do(t, http.MethodPost, "/campaigns/"+itoa(c.ID)+"/send", map[string]any{"async": true})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	ts.queue.Wait()

	details := decode[service.CampaignDetails](t, ts.do(t, http.MethodGet, "/campaigns/"+itoa(c.ID), nil))
	assert.Equal(t, model.StatusSent, details.Status)
	assert.Equal(t, 1, details.SentCount)
}

func TestSettingsAndSMS(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/settings/twilio", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decode[map[string]any](t, resp)["configured"])

	resp = ts.do(t, http.MethodPut, "/settings/twilio", model.TwilioSettings{AccountSID: "AC1", AuthToken: "tok", PhoneNumber: "+1555"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decode[map[string]any](t, resp)["configured"])

	resp = ts.do(t, http.MethodPut, "/settings/deepseek_api_key", map[string]string{"value": "sk-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(t, http.MethodGet, "/settings/deepseek_api_key", nil)
	assert.Equal(t, model.Setting{Key: "deepseek_api_key", Value: "sk-1"}, decode[model.Setting](t, resp))

	ts.client.Errors = map[string]error{"+9": assert.AnError}
	resp = ts.do(t, http.MethodPost, "/sms/test", map[string]string{"phone": "+9"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	test := decode[service.SendResult](t, resp)
	assert.False(t, test.Success)
	assert.Equal(t, 1, test.ErrorCount)

	resp = ts.do(t, http.MethodPost, "/sms/test", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/sms/send", map[string]any{"message": "hi", "recipients": []string{"+1", "+2"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, decode[service.SendResult](t, resp).SuccessCount)

	resp = ts.do(t, http.MethodPost, "/translate", map[string]string{"text": "hej"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, translate.Result{Success: true, TranslatedText: "HEJ"}, decode[translate.Result](t, resp))
}

func TestExportMembers(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/members", model.MemberInput{FirstName: "Anna", LastName: "Berg", Phone: "+46701", City: "Malmö"})

	resp := ts.do(t, http.MethodGet, "/members/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "FirstName;LastName;SocialNumber;Address;PostalCode;City;Mobile\nAnna;Berg;;;;Malmö;+46701\n", string(body))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "members.csv")

	resp = ts.do(t, http.MethodGet, "/members/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
