package filesharing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/filesharinghq/core/backend"
	"github.com/filesharinghq/core/internal"
	"github.com/filesharinghq/core/metrics"
	"github.com/filesharinghq/core/middleware"
	"github.com/filesharinghq/core/storage"
)

// bucketCors matches the CORS rule of the bucket for files served locally.
var bucketCors = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET,PUT",
	"Access-Control-Allow-Headers": "*",
}

// NewRouter exposes the upload API the way the API gateway does, plus the
// local file store when b uses it.
func NewRouter(b *backend.Backend) http.Handler {
	mux := http.NewServeMux()

	apiKey := b.Config.APIKey
	if len(apiKey) == 0 {
		apiKey = uuid.NewString()
		b.Log.Warn().Str("apiKey", apiKey).Msg("API_KEY not set, generated one for this run")
	}

	up := &Uploader{Storage: b.Filestore, Activity: b.Activity, Log: b.Log}
	mux.Handle("/files/presigned-url", middleware.Chain(up,
		middleware.RequestID(),
		middleware.RequireAPIKey(apiKey),
		middleware.Throttle(middleware.BasicPlan),
	))

	if b.Local != nil {
		lf := &localFiles{
			store: b.Local,
			views: &ViewLogger{Activity: b.Activity, Log: b.Log},
		}
		mux.Handle("/localfs/", middleware.Chain(lf,
			middleware.RequestID(),
			middleware.Cors(bucketCors),
		))
	}

	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("true"))
	})

	return mux
}

// Start runs the local server until an interrupt or termination signal.
func Start(b *backend.Backend) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := b.Config.Port
	if len(port) == 0 {
		port = "8099"
	}

	httpsvr := &http.Server{
		Addr:              ":" + port,
		Handler:           NewRouter(b),
		ReadHeaderTimeout: 10 * time.Second,
	}

	b.Log.Info().Str("addr", httpsvr.Addr).Msg("local server listening")

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpsvr.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpsvr.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// localFiles plays the part of the bucket and the distribution: signed PUT
// uploads and GET reads, each read being logged as a view.
type localFiles struct {
	store *storage.Local
	views *ViewLogger
}

func (lf *localFiles) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/localfs/")

	switch r.Method {
	case http.MethodPut:
		lf.put(w, r, key)
	case http.MethodGet, http.MethodHead:
		lf.views.Intercept(r.Context(), r.URL.EscapedPath(), r.UserAgent())
		lf.get(w, r, key)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (lf *localFiles) put(w http.ResponseWriter, r *http.Request, key string) {
	q := r.URL.Query()

	contentType := q.Get("contentType")
	if r.Header.Get("Content-Type") != contentType {
		http.Error(w, "content type does not match the signed one", http.StatusForbidden)
		return
	}

	if err := lf.store.Verify(key, contentType, q.Get("expires"), q.Get("signature")); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	defer r.Body.Close()
	if err := lf.store.Save(key, r.Body); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, storage.ErrInvalidKey) {
			code = http.StatusBadRequest
		}
		http.Error(w, err.Error(), code)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (lf *localFiles) get(w http.ResponseWriter, r *http.Request, key string) {
	f, err := lf.store.Open(key)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", internal.ContentType(key))
	http.ServeContent(w, r, key, fi.ModTime(), f)
}
