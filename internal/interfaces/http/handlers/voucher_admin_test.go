// internal/interfaces/http/handlers/voucher_admin_test.go
package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/checkout-backend/internal/config"
	"github.com/your-org/checkout-backend/internal/domain/voucher"
)

func newAdminRouter(store voucher.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewVoucherAdminHandler(store, &config.Config{})
	router := gin.New()
	router.GET("/admin/vouchers", handler.ListVouchers)
	router.POST("/admin/vouchers", handler.CreateVoucher)
	router.GET("/admin/vouchers/:id", handler.GetVoucher)
	router.PUT("/admin/vouchers/:id", handler.UpdateVoucher)
	router.DELETE("/admin/vouchers/:id", handler.DeleteVoucher)
	return router
}

func adminRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAdminCreateVoucher(t *testing.T) {
	store := newFakeVoucherStore()
	router := newAdminRouter(store)

	w := adminRequest(router, http.MethodPost, "/admin/vouchers",
		`{"code":"launch20","discount_type":"percentage","discount_value":20}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Voucher created successfully", body["message"])

	v, ok := body["voucher"].(map[string]interface{})
	require.True(t, ok, "response must carry the created voucher")
	assert.Equal(t, "LAUNCH20", v["code"])

	duplicate := adminRequest(router, http.MethodPost, "/admin/vouchers",
		`{"code":"LAUNCH20","discount_type":"fixed","discount_value":5}`)

	assert.Equal(t, http.StatusBadRequest, duplicate.Code)
	assert.Equal(t, "Voucher code already exists", decodeBody(t, duplicate)["error"])
}

func TestAdminCreateVoucherRejectsNonsenseDiscount(t *testing.T) {
	router := newAdminRouter(newFakeVoucherStore())

	w := adminRequest(router, http.MethodPost, "/admin/vouchers",
		`{"code":"OVER100","discount_type":"percentage","discount_value":150}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Failed to create voucher", decodeBody(t, w)["error"])
}

func TestAdminGetVoucherNotFound(t *testing.T) {
	router := newAdminRouter(newFakeVoucherStore())

	w := adminRequest(router, http.MethodGet, "/admin/vouchers/nope", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Voucher not found", decodeBody(t, w)["error"])
}

func TestAdminUpdateVoucher(t *testing.T) {
	v := percentVoucher()
	router := newAdminRouter(newFakeVoucherStore(v))

	w := adminRequest(router, http.MethodPut, "/admin/vouchers/"+v.ID, `{"is_active":false}`)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Voucher updated successfully", body["message"])

	updated := body["voucher"].(map[string]interface{})
	assert.Equal(t, false, updated["is_active"])
	assert.Equal(t, "SAVE15", updated["code"])
}

func TestAdminDeleteVoucher(t *testing.T) {
	v := percentVoucher()
	router := newAdminRouter(newFakeVoucherStore(v))

	w := adminRequest(router, http.MethodDelete, "/admin/vouchers/"+v.ID, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Voucher deleted successfully", decodeBody(t, w)["message"])

	again := adminRequest(router, http.MethodDelete, "/admin/vouchers/"+v.ID, "")
	assert.Equal(t, http.StatusNotFound, again.Code)
}

func TestAdminListVouchersWithStats(t *testing.T) {
	active := percentVoucher()
	inactive := percentVoucher()
	inactive.ID = "voucher-off"
	inactive.Code = "OFF"
	inactive.IsActive = false

	router := newAdminRouter(newFakeVoucherStore(active, inactive))

	w := adminRequest(router, http.MethodGet, "/admin/vouchers", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)

	vouchers, ok := body["vouchers"].([]interface{})
	require.True(t, ok, "response must carry a voucher list")
	assert.Len(t, vouchers, 2)

	stats, ok := body["stats"].(map[string]interface{})
	require.True(t, ok, "response must carry stats")
	assert.Equal(t, float64(2), stats["total_vouchers"])
	assert.Equal(t, float64(1), stats["active_vouchers"])
}
