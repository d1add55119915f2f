package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	argoerrors "github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)

	return r.err
}

type NotifyTestSuite struct {
	suite.Suite
	closed Event
}

func TestNotifySuite(t *testing.T) {
	suite.Run(t, new(NotifyTestSuite))
}

func (suite *NotifyTestSuite) SetupTest() {
	suite.closed = Event{
		Kind:   EventPositionClosed,
		Symbol: "BTCUSDT",
		Time:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Trade: &types.TradeLogEntry{
			Side:       types.SideLong,
			Reason:     types.ExitReasonTakeProfit1,
			EntryPrice: 100,
			ExitPrice:  106,
			Size:       0.5,
			Fraction:   0.5,
			PnL:        3,
		},
	}
}

func (suite *NotifyTestSuite) TestEventText() {
	suite.Equal("[BTCUSDT] long take_profit_1, pnl 3.00", suite.closed.Subject())
	suite.Equal("[BTCUSDT] long take_profit_1, pnl 3.00\nentry 100 exit 106 size 0.5 (50%)\n2024-05-01T12:00:00Z", suite.closed.Text())

	errEvent := Event{Kind: EventError, Symbol: "ETHUSDT", Err: errors.New("timeout")}
	suite.Equal("[ETHUSDT] error\ntimeout", errEvent.Text())

	opened := Event{Kind: EventPositionOpened, Symbol: "BTCUSDT", Position: &types.Position{Side: types.SideShort}}
	suite.Equal("[BTCUSDT] opened short", opened.Subject())
}

func (suite *NotifyTestSuite) TestMultiJoinsErrors() {
	ok := &recordingNotifier{}
	failing := &recordingNotifier{err: errors.New("smtp down")}

	err := Multi{failing, ok}.Notify(context.Background(), suite.closed)
	suite.True(argoerrors.HasCode(err, argoerrors.ErrCodeNotificationFailed))
	suite.True(argoerrors.IsExternal(err))
	suite.Len(ok.events, 1)
	suite.Len(failing.events, 1)

	suite.NoError(Multi{ok}.Notify(context.Background(), suite.closed))
}

func (suite *NotifyTestSuite) TestLogNotifier() {
	n := NewLogNotifier(logger.NewNopLogger())
	suite.NoError(n.Notify(context.Background(), suite.closed))
	suite.NoError(n.Notify(context.Background(), Event{Kind: EventError, Err: errors.New("x")}))
}

func (suite *NotifyTestSuite) TestEmailNotifier() {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)

	n := NewEmailNotifier(EmailConfig{
		Enabled: true, Host: "smtp.example.com", Port: 587,
		Username: "bot", Password: "secret",
		From: "bot@example.com", To: []string{"me@example.com"},
	})
	n.sendMail = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)

		return nil
	}

	suite.Require().NoError(n.Notify(context.Background(), suite.closed))
	suite.Equal("smtp.example.com:587", gotAddr)
	suite.Equal([]string{"me@example.com"}, gotTo)
	suite.Contains(gotMsg, "Subject: [BTCUSDT] long take_profit_1, pnl 3.00\r\n")
	suite.Contains(gotMsg, "entry 100 exit 106")

	n.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
	suite.True(argoerrors.HasCode(n.Notify(context.Background(), suite.closed), argoerrors.ErrCodeNotificationFailed))
}

func (suite *NotifyTestSuite) TestTelegramNotifier() {
	var sent []string

	router := mux.NewRouter()
	router.HandleFunc("/bottoken/getMe", func(w http.ResponseWriter, _ *http.Request) {
		suite.NoError(json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"id": 1, "is_bot": true, "first_name": "argo", "username": "argo_bot"},
		}))
	})
	router.HandleFunc("/bottoken/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		suite.NoError(r.ParseForm())
		suite.Equal("42", r.FormValue("chat_id"))
		sent = append(sent, r.FormValue("text"))

		suite.NoError(json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": map[string]any{
				"message_id": 1, "date": 0,
				"chat": map[string]any{"id": 42, "type": "private"},
				"text": r.FormValue("text"),
			},
		}))
	})

	server := httptest.NewServer(router)
	defer server.Close()

	n, err := NewTelegramNotifier(TelegramConfig{Enabled: true, Token: "token", ChatID: 42, APIEndpoint: server.URL + "/bot%s/%s"})
	suite.Require().NoError(err)
	suite.Require().NoError(n.Notify(context.Background(), suite.closed))
	suite.Equal([]string{suite.closed.Text()}, sent)
}

func (suite *NotifyTestSuite) TestAsyncDeliversBeforeClose() {
	next := &recordingNotifier{err: errors.New("ignored")}
	a := NewAsync(next, logger.NewNopLogger(), 10)

	for range 3 {
		suite.NoError(a.Notify(context.Background(), suite.closed))
	}

	a.Close()
	a.Close()
	suite.Len(next.events, 3)
}
