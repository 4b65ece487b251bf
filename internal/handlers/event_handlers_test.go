package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lounge_pos_backend/internal/events"
	"lounge_pos_backend/internal/models"
	"lounge_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summarySaleService struct {
	services.SaleService
}

func (summarySaleService) GetSalesSummary() (*models.SalesSummary, error) {
	return &models.SalesSummary{SalesCurrentDate: []models.Sale{}, TotalSum: decimal.NewFromInt(500), TotalSumToday: decimal.NewFromInt(120)}, nil
}

// streamRecorder adds the close notification gin's streaming needs.
type streamRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *streamRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func TestEventStream_SendsInitialSummaryThenEvents(t *testing.T) {
	hub := events.NewHub(4)
	r := gin.New()
	r.GET("/events", NewEventHandler(hub, summarySaleService{}).Stream)

	w := &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool)}
	done := make(chan struct{})
	go func() {
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))
		close(done)
	}()

	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)
	hub.Publish(services.ActionSaleRecorded, map[string]string{"transactionId": "tx-1"})
	hub.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after the hub closed")
	}

	body := w.Body.String()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body, "event:initialize")
	assert.Contains(t, body, "event:saleRecorded")
	assert.Contains(t, body, "tx-1")
	assert.Less(t, strings.Index(body, "event:initialize"), strings.Index(body, "event:saleRecorded"))
}
