package obs

import (
	"time"

	"github.com/rs/zerolog"
)

// Time logs the duration and outcome of one named operation.
//
//	defer obs.Time(log, "store.Put")(&err)
func Time(log zerolog.Logger, name string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Warn().Str("op", name).Dur("dur", dur).Err(*errp).Msg("operation failed")
			return
		}
		log.Debug().Str("op", name).Dur("dur", dur).Msg("operation done")
	}
}
