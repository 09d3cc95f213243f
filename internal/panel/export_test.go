package panel

// SetBeforeStart installs a hook that runs after StartRecording attaches its
// session and before the session starts.
func SetBeforeStart(f *Flow, hook func()) {
	f.beforeStart = hook
}
