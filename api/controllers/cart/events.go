package cart

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront/api/responses"
	cartsvc "github.com/angelmondragon/storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const cartEventName = "cart"

// CartEvents streams cart updates as server-sent events. The stream opens
// with a snapshot; afterwards only the newest pending update is kept for a
// slow reader, which is enough because every update carries the whole cart.
func CartEvents(carts Carts, logg *logger.Logger, heartbeat time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		model, release, err := modelFor(r, carts)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer release()
		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		pending := make(chan cartsvc.Update, 1)
		unsubscribe := model.Subscribe(func(u cartsvc.Update) {
			for {
				select {
				case pending <- u:
					return
				default:
				}
				select {
				case <-pending:
				default:
				}
			}
		})
		defer unsubscribe()

		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		snapshot := model.Read(ctx)
		if err := writeEvent(w, cartsvc.Update{Count: cartsvc.Count(snapshot), Cart: snapshot, Source: cartsvc.SourceLocal}); err != nil {
			return
		}
		flusher.Flush()

		if heartbeat <= 0 {
			heartbeat = 25 * time.Second
		}
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case u := <-pending:
				if err := writeEvent(w, u); err != nil {
					if logg != nil {
						logg.WarnErr(ctx, "cart.events_write_failed", err)
					}
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, u cartsvc.Update) error {
	payload, err := json.Marshal(newCartEvent(u))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", cartEventName, payload)
	return err
}
