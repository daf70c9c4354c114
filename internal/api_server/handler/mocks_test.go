package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cash-register-ledger/internal/api_server/middleware"
	"github.com/cash-register-ledger/internal/domain/audit"
	"github.com/cash-register-ledger/internal/domain/closing"
	"github.com/cash-register-ledger/internal/domain/company"
	"github.com/cash-register-ledger/internal/domain/event"
	"github.com/cash-register-ledger/internal/domain/movement"
	"github.com/cash-register-ledger/internal/domain/register"
	"github.com/cash-register-ledger/internal/ledger/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRegisterService struct {
	mock.Mock
}

func (m *MockRegisterService) GetToday(ctx context.Context) (*service.TodayView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TodayView), args.Error(1)
}

func (m *MockRegisterService) StartDay(ctx context.Context, input service.StartDayInput) (*register.Register, bool, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*register.Register), args.Bool(1), args.Error(2)
}

func (m *MockRegisterService) CloseDay(ctx context.Context) (*register.DaySummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*register.DaySummary), args.Error(1)
}

func (m *MockRegisterService) GetDaySummary(ctx context.Context, date string) (*register.DaySummary, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*register.DaySummary), args.Error(1)
}

type MockCompanyService struct {
	mock.Mock
}

func (m *MockCompanyService) CreateCompany(ctx context.Context, input service.CreateCompanyInput) (*company.Company, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*company.Company), args.Error(1)
}

func (m *MockCompanyService) GetCompany(ctx context.Context, id uuid.UUID) (*company.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*company.Company), args.Error(1)
}

func (m *MockCompanyService) ListActiveCompanies(ctx context.Context) ([]*company.Company, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*company.Company), args.Error(1)
}

func (m *MockCompanyService) SetCompanyActive(ctx context.Context, id uuid.UUID, input service.SetActiveInput) (*company.Company, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*company.Company), args.Error(1)
}

func (m *MockCompanyService) UpdateCompanyPrice(ctx context.Context, id uuid.UUID, input service.UpdatePriceInput) (*company.Company, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*company.Company), args.Error(1)
}

type MockMovementService struct {
	mock.Mock
}

func (m *MockMovementService) CreateMovement(ctx context.Context, input service.CreateMovementInput) (*movement.Movement, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*movement.Movement), args.Error(1)
}

func (m *MockMovementService) DeleteMovement(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMovementService) ListToday(ctx context.Context) ([]*movement.Movement, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*movement.Movement), args.Error(1)
}

func (m *MockMovementService) ListHistory(ctx context.Context, query service.HistoryQuery) ([]*movement.Movement, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*movement.Movement), args.Error(1)
}

type MockClosingService struct {
	mock.Mock
}

func (m *MockClosingService) ListOpenTotals(ctx context.Context, query service.OpenTotalsQuery) ([]*closing.CompanyTotal, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*closing.CompanyTotal), args.Error(1)
}

func (m *MockClosingService) ListGroupedTotals(ctx context.Context, query service.GroupedTotalsQuery) ([]*closing.CompanyTotal, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*closing.CompanyTotal), args.Error(1)
}

func (m *MockClosingService) ListOpenMovements(ctx context.Context, companyID uuid.UUID) ([]*movement.Movement, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*movement.Movement), args.Error(1)
}

func (m *MockClosingService) PerformClosing(ctx context.Context, input service.PerformClosingInput) (*closing.Closing, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*closing.Closing), args.Error(1)
}

func (m *MockClosingService) GetClosing(ctx context.Context, id uuid.UUID) (*closing.Closing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*closing.Closing), args.Error(1)
}

func (m *MockClosingService) ListClosings(ctx context.Context, companyID *uuid.UUID) ([]*closing.Closing, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*closing.Closing), args.Error(1)
}

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Query(ctx context.Context, query service.AuditQuery) ([]*audit.Entry, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Entry), args.Error(1)
}

func (m *MockAuditService) FindByEntity(ctx context.Context, entity, entityID string) ([]*audit.Entry, error) {
	args := m.Called(ctx, entity, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Entry), args.Error(1)
}

func (m *MockAuditService) FindByUser(ctx context.Context, userID string) ([]*audit.Entry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Entry), args.Error(1)
}

type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) ListByAggregate(ctx context.Context, aggregateID string, limit int) ([]*event.LedgerEvent, error) {
	args := m.Called(ctx, aggregateID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*event.LedgerEvent), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CorrelationID())
	return r
}

// serve sends body, when not nil, as JSON and returns the recorded response
func serve(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		jsonBody, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// decode unmarshals the envelope and its data into out, when given
func decode(t *testing.T, rr *httptest.ResponseRecorder, out interface{}) Response {
	t.Helper()

	var envelope struct {
		Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
	return envelope.Response
}
