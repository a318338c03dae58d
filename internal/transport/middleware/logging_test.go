package middleware_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/payroll-advance/internal/transport/middleware"
)

var _ = Describe("LoggingMiddleware", func() {
	var (
		logBuf  *bytes.Buffer
		handler http.Handler
		seen    []byte
	)

	BeforeEach(func() {
		logBuf = &bytes.Buffer{}
		logger := slog.New(slog.NewJSONHandler(logBuf, nil))
		seen = nil

		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"message":"ok"}`))
		})
		handler = middleware.LoggingMiddleware(logger)(inner)
	})

	It("logs request and response without altering either", func() {
		body := `{"amount":"60.00","notes":"april installment"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/advances/1/repayments", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		Expect(string(seen)).To(Equal(body))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal(`{"message":"ok"}`))

		logged := logBuf.String()
		Expect(logged).To(ContainSubstring("incoming request"))
		Expect(logged).To(ContainSubstring("april installment"))
		Expect(logged).To(ContainSubstring(`"status_code":200`))
	})

	It("masks credentials in the request body", func() {
		body := `{"email":"hr@mail.com","password":"s3cret-pass"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		logged := logBuf.String()
		Expect(logged).NotTo(ContainSubstring("s3cret-pass"))
		Expect(logged).To(ContainSubstring("[FILTERED]"))
		Expect(string(seen)).To(Equal(body), "handler must still receive the raw body")
	})

	It("masks the authorization header", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/employees", nil)
		req.Header.Set("Authorization", "Bearer super-secret-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		logged := logBuf.String()
		Expect(logged).NotTo(ContainSubstring("super-secret-token"))
		Expect(logged).To(ContainSubstring("[FILTERED]"))
	})

	It("masks salary figures in payloads", func() {
		body := `{"name":"Amira Hassan","basic_salary":"9500.00"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/employees", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		logged := logBuf.String()
		Expect(logged).NotTo(ContainSubstring("9500.00"))
		Expect(logged).To(ContainSubstring("[FILTERED]"))
	})
})
