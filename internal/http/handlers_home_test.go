package http

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"pfm/internal/core"
	"pfm/internal/home"
)

const socketTimeout = 5 * time.Second

func dialHome(t *testing.T, srv *Server) (*websocket.Conn, context.Context) {
	t.Helper()
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), socketTimeout)
	t.Cleanup(cancel)

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/home", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn, ctx
}

// readUntil reads frames until match accepts one.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, match func(outboundFrame) bool) outboundFrame {
	t.Helper()
	for {
		var frame outboundFrame
		require.NoError(t, wsjson.Read(ctx, conn, &frame))
		if match(frame) {
			return frame
		}
	}
}

func successWith(period string) func(outboundFrame) bool {
	return func(f outboundFrame) bool {
		return f.Kind == frameState && f.State.Status == "success" && f.State.SelectedPeriod == period
	}
}

func effectOf(typ string) func(outboundFrame) bool {
	return func(f outboundFrame) bool {
		return f.Kind == frameEffect && f.Effect.Type == typ
	}
}

func TestHomeSocketSession(t *testing.T) {
	srv, _ := newTestServer(t)
	conn, ctx := dialHome(t, srv)

	frame := readUntil(t, ctx, conn, successWith("1M"))
	state := frame.State
	require.NotNil(t, state.User)
	assert.Equal(t, "John", state.User.Name)
	assert.Equal(t, "$13,553.00", state.Balance.BalanceFormatted)
	assert.Len(t, state.Recipients, 7)
	assert.LessOrEqual(t, len(state.RecentTransactions), core.RecentLimit)
	assert.Len(t, state.BalanceHistory, core.OneMonth.Points())

	require.NoError(t, wsjson.Write(ctx, conn, inboundFrame{Type: "period_selected", Period: "1Y"}))
	frame = readUntil(t, ctx, conn, successWith("1Y"))
	assert.Len(t, frame.State.BalanceHistory, core.OneYear.Points())

	require.NoError(t, wsjson.Write(ctx, conn, inboundFrame{Type: "transaction_clicked", ID: "txn_1"}))
	frame = readUntil(t, ctx, conn, effectOf("navigate_to_transaction"))
	assert.Equal(t, "txn_1", frame.Effect.TransactionID)

	// Unknown frames are ignored and the session keeps working.
	require.NoError(t, wsjson.Write(ctx, conn, inboundFrame{Type: "dance"}))
	require.NoError(t, wsjson.Write(ctx, conn, inboundFrame{Type: "recipient_clicked", ID: "rec_2"}))
	frame = readUntil(t, ctx, conn, effectOf("navigate_to_recipient"))
	assert.Equal(t, "rec_2", frame.Effect.RecipientID)

	require.NoError(t, wsjson.Write(ctx, conn, inboundFrame{Type: "notification_clicked"}))
	frame = readUntil(t, ctx, conn, effectOf("show_toast"))
	assert.Equal(t, "Notifications", frame.Effect.Message)
}

func TestHubRefreshAllReloadsSessions(t *testing.T) {
	srv, _ := newTestServer(t)
	conn, ctx := dialHome(t, srv)
	readUntil(t, ctx, conn, successWith("1M"))

	require.NoError(t, wsjson.Write(ctx, conn, inboundFrame{Type: "period_selected", Period: "5D"}))
	readUntil(t, ctx, conn, successWith("5D"))

	require.Eventually(t, func() bool { return srv.Hub().Len() == 1 }, socketTimeout, 10*time.Millisecond)
	assert.Equal(t, 1, srv.Hub().RefreshAll(context.Background()))

	// A refresh keeps the selected period.
	frame := readUntil(t, ctx, conn, successWith("5D"))
	assert.Len(t, frame.State.BalanceHistory, core.FiveDays.Points())
}

func TestSessionUnregistersOnClose(t *testing.T) {
	srv, _ := newTestServer(t)
	conn, ctx := dialHome(t, srv)
	readUntil(t, ctx, conn, successWith("1M"))
	require.Eventually(t, func() bool { return srv.Hub().Len() == 1 }, socketTimeout, 10*time.Millisecond)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))
	assert.Eventually(t, func() bool { return srv.Hub().Len() == 0 }, socketTimeout, 10*time.Millisecond)
}

func TestShutdownClosesSessions(t *testing.T) {
	srv, _ := newTestServer(t)
	conn, ctx := dialHome(t, srv)
	readUntil(t, ctx, conn, successWith("1M"))
	require.Eventually(t, func() bool { return srv.Hub().Len() == 1 }, socketTimeout, 10*time.Millisecond)

	// Close waits for the client's half of the handshake, so read concurrently.
	go srv.hub.CloseAll()

	var err error
	for err == nil {
		var frame outboundFrame
		err = wsjson.Read(ctx, conn, &frame)
	}
	assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
	assert.Eventually(t, func() bool { return srv.Hub().Len() == 0 }, socketTimeout, 10*time.Millisecond)
}

func TestInboundFrameToEvent(t *testing.T) {
	tests := []struct {
		name    string
		frame   inboundFrame
		want    home.Event
		wantErr bool
	}{
		{"period label", inboundFrame{Type: "period_selected", Period: "3M"}, home.PeriodSelected{Period: core.ThreeMonths}, false},
		{"period name", inboundFrame{Type: "period_selected", Period: "ONE_YEAR"}, home.PeriodSelected{Period: core.OneYear}, false},
		{"bad period", inboundFrame{Type: "period_selected", Period: "7D"}, nil, true},
		{"transaction", inboundFrame{Type: "transaction_clicked", ID: " txn_1 "}, home.TransactionClicked{TransactionID: "txn_1"}, false},
		{"transaction without id", inboundFrame{Type: "transaction_clicked"}, nil, true},
		{"recipient", inboundFrame{Type: "recipient_clicked", ID: "rec_1"}, home.RecipientClicked{RecipientID: "rec_1"}, false},
		{"notification", inboundFrame{Type: "notification_clicked"}, home.NotificationClicked{}, false},
		{"retry", inboundFrame{Type: "retry"}, home.Retry{}, false},
		{"refresh", inboundFrame{Type: "refresh"}, home.Refresh{}, false},
		{"unknown", inboundFrame{Type: "dance"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.frame.toEvent()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToStateView(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, stateView{Status: "loading"}, toStateView(home.Loading{}, now))
	assert.Equal(t, stateView{Status: "error", Message: "boom"}, toStateView(home.Error{Message: "boom"}, now))

	v := toStateView(home.Success{
		User:    core.User{Name: "John", Balance: core.Money{Cents: 100}},
		Balance: core.Money{Cents: 100},
		RecentTransactions: []core.Transaction{{
			ID: "t", Title: "Coffee", Amount: core.Money{Cents: 450}, Type: core.Debit, Date: now.Add(-2 * time.Hour),
		}},
		SelectedPeriod: core.OneDay,
	}, now)
	assert.Equal(t, "success", v.Status)
	assert.Equal(t, "1D", v.SelectedPeriod)
	require.Len(t, v.RecentTransactions, 1)
	assert.Equal(t, "- 4.50", v.RecentTransactions[0].AmountFormatted)
	assert.Equal(t, "2 hours ago", v.RecentTransactions[0].RelativeTime)
}
