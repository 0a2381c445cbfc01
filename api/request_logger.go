// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/tonconfig/confignode/log"
)

const maxLoggedBody = 4096

// RequestLoggerHandler logs every request with its body and latency.
func RequestLoggerHandler(handler http.Handler, logger log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			var err error
			body, err = io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
			if err != nil {
				logger.Warn("unexpected body read error", "err", err)
				http.Error(w, "read body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
			if len(body) > maxLoggedBody {
				body = body[:maxLoggedBody]
			}
		}

		start := time.Now()
		defer func() {
			logger.Info("API Request",
				"method", r.Method,
				"uri", r.URL.RequestURI(),
				"body", string(body),
				"elapsed", time.Since(start).String(),
			)
		}()
		handler.ServeHTTP(w, r)
	})
}
