package gateway

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Yusufzhafir/go-exchange/internal/gateway/middleware"
)

type statusWriter struct {
	http.ResponseWriter
	status int
	n      int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.n += n
	return n, err
}

func logging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(sw, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Int("bytes", sw.n),
				zap.Duration("took", time.Since(start)),
			)
		})
	}
}

// wrap your mux with Cors(mux) when starting the server
// http.ListenAndServe(":8080", Cors(mux))

func Cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")

			// Reflect requested headers/method for preflight robustness
			reqHdrs := r.Header.Get("Access-Control-Request-Headers")
			if reqHdrs == "" {
				reqHdrs = "Content-Type, Authorization"
			}
			w.Header().Set("Access-Control-Allow-Headers", reqHdrs)

			reqMethod := r.Header.Get("Access-Control-Request-Method")
			if reqMethod == "" {
				reqMethod = "GET, POST, PUT, DELETE, OPTIONS"
			}
			w.Header().Set("Access-Control-Allow-Methods", reqMethod)

			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		// Short-circuit preflight so it never hits the route table
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type BindRouterOpts struct {
	ServerRouter *http.ServeMux
	Client       *EngineClient
	TokenMaker   *middleware.JWTMaker
	Log          *zap.Logger
}

func BindRouter(opts BindRouterOpts) {
	authMiddleware := middleware.AuthMiddleware(opts.TokenMaker)
	logMiddleware := logging(opts.Log.Named("http"))

	orderRouter := NewOrderRouter(opts.Client)
	userRouter := NewUserRouter(opts.Client, opts.TokenMaker)

	mux := opts.ServerRouter
	mux.Handle("POST /api/v1/order", logMiddleware(authMiddleware(http.HandlerFunc(orderRouter.Place))))
	mux.Handle("DELETE /api/v1/order", logMiddleware(authMiddleware(http.HandlerFunc(orderRouter.Cancel))))
	mux.Handle("DELETE /api/v1/order/all", logMiddleware(authMiddleware(http.HandlerFunc(orderRouter.CancelAll))))
	mux.Handle("GET /api/v1/order/all", logMiddleware(authMiddleware(http.HandlerFunc(orderRouter.OpenOrders))))
	mux.Handle("GET /api/v1/depth", logMiddleware(http.HandlerFunc(orderRouter.Depth)))
	mux.Handle("GET /api/v1/user/balance", logMiddleware(authMiddleware(http.HandlerFunc(userRouter.Balance))))
	mux.Handle("POST /api/v1/user/login", logMiddleware(http.HandlerFunc(userRouter.Login)))

	//healthcheck
	mux.Handle("GET /healthz", logMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": 200,
			"health": "healthy",
		})
	})))
}
