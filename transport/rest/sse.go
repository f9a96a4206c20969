package rest

import (
	"sync"

	"github.com/playmesh/gameroom-backend/internal/broadcast"
)

// newChannelListener bridges the broadcaster's synchronous delivery to the
// SSE write loop. A subscriber whose buffer overflows is dropped instead of
// being served a stream with silent gaps: observers see every snapshot in
// order, or the stream closes.
func newChannelListener(events chan []byte, drop func()) *broadcast.Listener {
	var once sync.Once

	return broadcast.NewListener(func(message []byte) {
		select {
		case events <- message:
		default:
			once.Do(drop)
		}
	})
}
