package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/escape-room-booking/internal/auth"
	"github.com/iliyamo/escape-room-booking/internal/handler"
	"github.com/iliyamo/escape-room-booking/internal/model"
	"github.com/iliyamo/escape-room-booking/internal/service"
	"github.com/iliyamo/escape-room-booking/internal/store"
)

const secret = "test-secret"

var slotStart = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

type api struct {
	e   *echo.Echo
	mem *store.Memory
}

func newAPI(t *testing.T) *api {
	t.Helper()
	mem := store.NewMemory()
	mem.AddScenario(model.Scenario{ID: "S", Name: "Tomb"})
	mem.AddChapter(model.Chapter{ID: "C1", ScenarioID: "S", Name: "One"})
	mem.AddChapter(model.Chapter{ID: "C2", ScenarioID: "S", Name: "Two"})
	mem.AddTimeSlot(model.TimeSlot{ID: "c1-10", ChapterID: "C1", StartTime: slotStart, EndTime: slotStart.Add(90 * time.Minute)})
	mem.AddTimeSlot(model.TimeSlot{ID: "c2-1030", ChapterID: "C2", StartTime: slotStart.Add(30 * time.Minute), EndTime: slotStart.Add(2 * time.Hour)})

	guard := service.NewQuotaGuard(3, time.UTC)
	e := echo.New()
	RegisterRoutes(e, Deps{
		Reservations:  handler.NewReservationHandler(service.NewReservationService(mem, service.WithQuotaGuard(guard))),
		TimeSlots:     handler.NewTimeSlotHandler(service.NewTimeSlotService(mem, guard)),
		Notifications: handler.NewNotificationHandler(service.NewNotificationService(mem)),
		JWTSecret:     secret,
	})
	return &api{e: e, mem: mem}
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := auth.NewAccessToken(secret, auth.Claims{UserID: "7", Email: "staff@example.com", Role: role}, time.Hour)
	require.NoError(t, err)
	return tok.Token
}

func (a *api) do(method, path, body, bearer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

const createBody = `{"scenario":"S","chapter":"C1","timeSlot":"c1-10","name":"Ada","email":"ada@example.com","phone":"+216","language":"en","people":4}`

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Message)
	return body.Error
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestReservationLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)
	admin := token(t, "admin")

	rec := a.do(http.MethodPost, "/v1/reservations", createBody, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, model.PartitionPending, created.Status)

	rec = a.do(http.MethodGet, "/v1/chapters/C2/timeslots?date=2026-03-10", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var slots []model.TimeSlot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slots))
	require.Len(t, slots, 1)
	assert.Equal(t, model.SlotBlocked, slots[0].Status)

	rec = a.do(http.MethodPut, "/v1/reservations/pending/"+created.ID+"/status", `{"status":"approved"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPut, "/v1/reservations/pending/"+created.ID+"/status", `{"status":"approved"}`, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec))

	rec = a.do(http.MethodGet, "/v1/reservations", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var grouped model.ReservationsByPartition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grouped))
	require.Len(t, grouped.Approved, 1)
	assert.Equal(t, "Tomb", grouped.Approved[0].ScenarioName)
	assert.NotNil(t, grouped.Pending)

	rec = a.do(http.MethodDelete, "/v1/timeslots/c1-10", "", admin)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "slot_in_use", decodeError(t, rec))

	// legacy collection name for the approved partition
	rec = a.do(http.MethodDelete, "/v1/reservations/approvedReservations/"+created.ID, "", admin)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	slot, _ := a.mem.TimeSlot("c1-10")
	assert.Equal(t, model.SlotAvailable, slot.Status)
	sibling, _ := a.mem.TimeSlot("c2-1030")
	assert.Equal(t, model.SlotAvailable, sibling.Status)

	rec = a.do(http.MethodGet, "/v1/reservations/"+created.ID, "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail model.ReservationDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, model.PartitionDeleted, detail.Status)
}

func TestCreateReservation_ErrorMapping(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/v1/reservations", `{"scenario":"S"`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPost, "/v1/reservations", strings.Replace(createBody, `"people":4`, `"people":0`, 1), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec))

	rec = a.do(http.MethodPost, "/v1/reservations", strings.Replace(createBody, "c1-10", "missing", 1), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/v1/reservations", createBody, "").Code)

	rec = a.do(http.MethodPost, "/v1/reservations", strings.Replace(createBody, "ada@", "grace@", 1), "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "slot_unavailable", decodeError(t, rec))
}

func TestStaffRoutesRequireStaffToken(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/v1/reservations", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodGet, "/v1/reservations", "", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodGet, "/v1/reservations", "", token(t, "customer"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodGet, "/v1/notifications", "", token(t, "subadmin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSetStatus_BadInput(t *testing.T) {
	a := newAPI(t)
	admin := token(t, "admin")

	rec := a.do(http.MethodPut, "/v1/reservations/archived/x/status", `{"status":"approved"}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPut, "/v1/reservations/pending/x/status", `{"status":"maybe"}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPut, "/v1/reservations/pending/x/status", `{"status":"pending"}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTimeSlots_BadDate(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodGet, "/v1/chapters/C1/timeslots?date=10-03-2026", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
