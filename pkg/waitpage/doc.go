// Copyright © 2018 One Concern

// Package waitpage serves a progress page while a ComfyUI container boots.
//
// The page follows the boot log: each known marker line moves the boot sequence to a stage.
// While a backup restore runs, the custom nodes listed by the downloaded snapshot manifest are
// reported with their install status, as logged by the restore sequence.
//
// Routes:
//
//	/healthz  liveness, answers "ok"
//	/status   readiness placeholder, answers "placeholder" until the real UI takes over the port
//	/state    boot state as JSON
//	/metrics  boot state as prometheus gauges
//	/*        the progress page
package waitpage
