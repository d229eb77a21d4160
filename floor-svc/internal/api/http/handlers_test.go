package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"floor-manager/floor-svc/internal/domain"
	"floor-manager/floor-svc/internal/mocks"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type services struct {
	tables   *mocks.TableServiceInterface
	orders   *mocks.OrderServiceInterface
	statuses *mocks.StatusServiceInterface
}

func serve(t *testing.T, setup func(s services), method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	s := services{
		tables:   mocks.NewTableServiceInterface(t),
		orders:   mocks.NewOrderServiceInterface(t),
		statuses: mocks.NewStatusServiceInterface(t),
	}
	if setup != nil {
		setup(s)
	}
	log, _ := test.NewNullLogger()
	handler := NewHandler(s.tables, s.orders, s.statuses, log)

	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCreateOrderHandler(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		setupMock func(s services)
		wantCode  int
		wantError string
	}{
		{
			name: "created",
			body: `{"table_id":1,"items":[{"menu_id":5,"quantity":2}]}`,
			setupMock: func(s services) {
				s.orders.On("CreateOrder", mock.Anything, domain.CreateOrderRequest{
					TableID: 1,
					Items:   []domain.OrderLine{{MenuID: 5, Quantity: 2}},
				}).Return(&domain.Order{ID: 7, TableID: 1, TotalPrice: decimal.NewFromInt(100)}, nil).Once()
			},
			wantCode: http.StatusCreated,
		},
		{
			name:      "invalid JSON",
			body:      `{invalid}`,
			wantCode:  http.StatusBadRequest,
			wantError: "validation_error",
		},
		{
			name: "table not available",
			body: `{"table_id":1,"items":[{"menu_id":5,"quantity":1}]}`,
			setupMock: func(s services) {
				s.orders.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, domain.Validationf("table not available")).Once()
			},
			wantCode:  http.StatusBadRequest,
			wantError: "validation_error",
		},
		{
			name: "unknown menu item",
			body: `{"table_id":1,"items":[{"menu_id":404,"quantity":1}]}`,
			setupMock: func(s services) {
				s.orders.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, domain.NotFoundf("menu item 404")).Once()
			},
			wantCode:  http.StatusNotFound,
			wantError: "not_found",
		},
		{
			name: "store failure is opaque",
			body: `{"table_id":1,"items":[{"menu_id":5,"quantity":1}]}`,
			setupMock: func(s services) {
				s.orders.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, errors.New("pq: connection refused")).Once()
			},
			wantCode:  http.StatusInternalServerError,
			wantError: "internal",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			w := serve(t, testCase.setupMock, "POST", "/api/orders", testCase.body)

			assert.Equal(t, testCase.wantCode, w.Code)
			if testCase.wantError != "" {
				body := decodeError(t, w)
				assert.Equal(t, testCase.wantError, body.Error)
				assert.NotContains(t, body.Message, "pq:")
			}
		})
	}
}

func TestActiveOrdersHandler(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		setupMock func(s services)
		wantCode  int
	}{
		{
			name: "default filter",
			path: "/api/orders/active",
			setupMock: func(s services) {
				s.orders.On("ActiveOrders", mock.Anything, []domain.Status(nil)).Return([]domain.Order{{ID: 1}}, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name: "comma separated statuses",
			path: "/api/orders/active?status=pending,COOKING",
			setupMock: func(s services) {
				s.orders.On("ActiveOrders", mock.Anything, []domain.Status{domain.StatusPending, domain.StatusCooking}).Return([]domain.Order{}, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name:     "unknown status",
			path:     "/api/orders/active?status=EATEN",
			wantCode: http.StatusBadRequest,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			w := serve(t, testCase.setupMock, "GET", testCase.path, "")
			assert.Equal(t, testCase.wantCode, w.Code)
		})
	}
}

func TestTransitionHandlers(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		body      string
		setupMock func(s services)
		wantCode  int
	}{
		{
			name: "item ready",
			path: "/api/order-items/4/status",
			body: `{"status":"ready"}`,
			setupMock: func(s services) {
				s.statuses.On("TransitionItem", mock.Anything, 4, domain.StatusReady).Return(&domain.ItemChange{}, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name: "cancel served item",
			path: "/api/order-items/4/status",
			body: `{"status":"CANCELLED"}`,
			setupMock: func(s services) {
				s.statuses.On("TransitionItem", mock.Anything, 4, domain.StatusCancelled).
					Return(nil, domain.Conflictf("item 4 cannot move from SERVED to CANCELLED")).Once()
			},
			wantCode: http.StatusConflict,
		},
		{
			name: "order cooking",
			path: "/api/orders/9/status",
			body: `{"status":"COOKING"}`,
			setupMock: func(s services) {
				s.statuses.On("TransitionOrder", mock.Anything, 9, domain.StatusCooking).Return(&domain.Order{ID: 9}, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name:     "bogus status",
			path:     "/api/orders/9/status",
			body:     `{"status":"EATEN"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "missing order",
			path: "/api/orders/9/status",
			body: `{"status":"READY"}`,
			setupMock: func(s services) {
				s.statuses.On("TransitionOrder", mock.Anything, 9, domain.StatusReady).Return(nil, domain.NotFoundf("order 9")).Once()
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			w := serve(t, testCase.setupMock, "PATCH", testCase.path, testCase.body)
			assert.Equal(t, testCase.wantCode, w.Code)
		})
	}
}

func TestCloseTableHandler(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		setupMock func(s services)
		wantCode  int
	}{
		{
			name: "no body",
			setupMock: func(s services) {
				s.orders.On("CloseTable", mock.Anything, 2, (*string)(nil)).Return(&domain.CloseResult{}, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name: "with payment method",
			body: `{"payment_method":"CASH"}`,
			setupMock: func(s services) {
				s.orders.On("CloseTable", mock.Anything, 2, mock.MatchedBy(func(m *string) bool {
					return m != nil && *m == "CASH"
				})).Return(&domain.CloseResult{}, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name: "unserved items",
			setupMock: func(s services) {
				s.orders.On("CloseTable", mock.Anything, 2, mock.Anything).
					Return(nil, domain.Conflictf("unserved items: table 2 has 1 item(s) not yet served")).Once()
			},
			wantCode: http.StatusConflict,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			w := serve(t, testCase.setupMock, "POST", "/api/tables/2/close", testCase.body)
			assert.Equal(t, testCase.wantCode, w.Code)
			if testCase.wantCode == http.StatusConflict {
				assert.Equal(t, "conflict", decodeError(t, w).Error)
			}
		})
	}
}

func TestTableHandlers(t *testing.T) {
	table := &domain.Table{ID: 3, Name: "T3", IsAvailable: true}

	tests := []struct {
		name      string
		method    string
		path      string
		body      string
		setupMock func(s services)
		wantCode  int
	}{
		{
			name:   "create",
			method: "POST", path: "/api/tables", body: `{"name":"T3"}`,
			setupMock: func(s services) {
				s.tables.On("Create", mock.Anything, "T3").Return(table, nil).Once()
			},
			wantCode: http.StatusCreated,
		},
		{
			name:   "create duplicate",
			method: "POST", path: "/api/tables", body: `{"name":"T3"}`,
			setupMock: func(s services) {
				s.tables.On("Create", mock.Anything, "T3").Return(nil, domain.Conflictf("table name \"T3\" is already in use")).Once()
			},
			wantCode: http.StatusConflict,
		},
		{
			name:   "list",
			method: "GET", path: "/api/tables",
			setupMock: func(s services) {
				s.tables.On("List", mock.Anything).Return([]domain.Table{*table}, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name:   "get missing",
			method: "GET", path: "/api/tables/8",
			setupMock: func(s services) {
				s.tables.On("Get", mock.Anything, 8).Return(nil, domain.NotFoundf("table 8")).Once()
			},
			wantCode: http.StatusNotFound,
		},
		{
			name:   "delete",
			method: "DELETE", path: "/api/tables/3",
			setupMock: func(s services) {
				s.tables.On("Delete", mock.Anything, 3).Return(nil).Once()
			},
			wantCode: http.StatusNoContent,
		},
		{
			name:   "availability",
			method: "PATCH", path: "/api/tables/3/availability", body: `{"value":false}`,
			setupMock: func(s services) {
				s.tables.On("SetAvailability", mock.Anything, 3, false).Return(table, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name:   "availability without value",
			method: "PATCH", path: "/api/tables/3/availability", body: `{}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:   "calling staff",
			method: "PATCH", path: "/api/tables/3/calling-staff", body: `{"value":true}`,
			setupMock: func(s services) {
				s.tables.On("SetCallingStaff", mock.Anything, 3, true).Return(table, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name:   "open bill",
			method: "GET", path: "/api/tables/3/bill",
			setupMock: func(s services) {
				s.orders.On("OpenBill", mock.Anything, 3).Return(&domain.Bill{TableID: 3, Status: domain.BillOpen}, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name:     "non numeric id",
			method:   "GET",
			path:     "/api/tables/abc",
			wantCode: http.StatusNotFound,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			w := serve(t, testCase.setupMock, testCase.method, testCase.path, testCase.body)
			assert.Equal(t, testCase.wantCode, w.Code)
		})
	}
}

func TestTableQRCodeHandler(t *testing.T) {
	png := []byte("\x89PNG fake")
	w := serve(t, func(s services) {
		s.tables.On("QRCode", mock.Anything, 3).Return(png, nil).Once()
	}, "GET", "/api/tables/3/qrcode", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, png, w.Body.Bytes())
}

func TestHealthAndRouter(t *testing.T) {
	log, hook := test.NewNullLogger()
	router := NewRouter(NewHandler(nil, nil, nil, log))

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "floor-svc", body["service"])

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "/health", entry.Data["path"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
}
