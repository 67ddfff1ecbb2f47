package e2e

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accounthandler "docregistry/internal/account/handler"
	accountmetrics "docregistry/internal/account/metrics"
	accountservice "docregistry/internal/account/service"
	accountstore "docregistry/internal/account/store"
	dochandler "docregistry/internal/document/handler"
	docmetrics "docregistry/internal/document/metrics"
	docservice "docregistry/internal/document/service"
	docstore "docregistry/internal/document/store"
	jwttoken "docregistry/internal/jwt_token"
	"docregistry/internal/pinning"
	"docregistry/internal/platform/health"
	httptransport "docregistry/internal/transport/http"
	verifycache "docregistry/internal/verification/cache"
	verifyhandler "docregistry/internal/verification/handler"
	verifymetrics "docregistry/internal/verification/metrics"
	verifyservice "docregistry/internal/verification/service"
	auditmetrics "docregistry/pkg/platform/audit/metrics"
	"docregistry/pkg/platform/audit/publisher"
	auditmemory "docregistry/pkg/platform/audit/store/memory"
	"docregistry/pkg/platform/middleware/request"
)

// SigningKey signs tokens for the in-process server.
const SigningKey = "e2e-signing-key"

// FakePinning stands in for the IPFS pinning API.
type FakePinning struct {
	mu        sync.Mutex
	contentID string
	failing   bool
	uploads   int
	server    *httptest.Server
}

func newFakePinning() *FakePinning {
	f := &FakePinning{contentID: "QmDefault"}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

func (f *FakePinning) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing {
		http.Error(w, `{"error":"pinning unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, `{"error":"file missing"}`, http.StatusBadRequest)
		return
	}
	_, _ = io.Copy(io.Discard, file)
	_ = file.Close()

	f.uploads++
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"IpfsHash": f.contentID, "PinSize": 1})
}

func (f *FakePinning) SetContentID(cid string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contentID = cid
}

func (f *FakePinning) SetFailing(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = failing
}

func (f *FakePinning) Uploads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads
}

// Stack is a complete registry running in process on in-memory stores.
type Stack struct {
	Server  *httptest.Server
	Pinning *FakePinning
	Tokens  *jwttoken.JWTService
	audit   *publisher.Publisher
}

func NewStack() *Stack {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	fake := newFakePinning()

	auditPublisher := publisher.NewPublisher(auditmemory.NewInMemoryStore(),
		publisher.WithPublisherLogger(logger),
		publisher.WithMetrics(auditmetrics.New(reg)),
	)
	tokens := jwttoken.NewJWTService(SigningKey, jwttoken.DefaultTokenTTL)
	documents := docstore.NewInMemoryStore()

	accountSvc := accountservice.New(accountstore.NewInMemoryStore(), tokens,
		accountservice.WithLogger(logger),
		accountservice.WithAuditPublisher(auditPublisher),
		accountservice.WithMetrics(accountmetrics.New(reg)),
	)
	documentSvc := docservice.New(documents,
		pinning.New(pinning.Config{
			URL:          fake.server.URL,
			APIKey:       "key",
			SecretAPIKey: "secret",
			Metrics:      pinning.NewMetrics(reg),
			Logger:       logger,
		}),
		docservice.WithLogger(logger),
		docservice.WithAuditPublisher(auditPublisher),
		docservice.WithMetrics(docmetrics.New(reg)),
	)
	verifySvc := verifyservice.New(documents,
		verifyservice.WithCache(verifycache.Noop{}),
		verifyservice.WithLogger(logger),
		verifyservice.WithMetrics(verifymetrics.New(reg)),
	)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger: logger,
		Health: health.New(logger),
		Public: []httptransport.Routes{
			accounthandler.New(accountSvc, logger),
			verifyhandler.New(verifySvc, logger),
		},
		Protected: []httptransport.Routes{
			dochandler.New(documentSvc, logger),
		},
		TokenValidator: jwttoken.NewJWTServiceAdapter(tokens),
		Metrics:        request.NewMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AllowedOrigins: []string{"*"},
		UploadMaxBytes: 1 << 20,
	})

	return &Stack{
		Server:  httptest.NewServer(router),
		Pinning: fake,
		Tokens:  tokens,
		audit:   auditPublisher,
	}
}

func (s *Stack) Close() {
	s.Server.Close()
	s.Pinning.server.Close()
	s.audit.Close()
}
