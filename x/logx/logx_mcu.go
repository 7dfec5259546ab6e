//go:build rp2040 || rp2350

package logx

import "inkpanel-go/x/fmtx"

// MCU logging goes to the default println sink (USB CDC). Debug lines
// are compiled in but gated, so a field unit can stay quiet.

var debugEnabled = false

func EnableDebug(on bool) { debugEnabled = on }

func Debug(msg string, args ...any) {
	if !debugEnabled {
		return
	}
	emit("DBG", msg, args)
}

func Info(msg string, args ...any)  { emit("INF", msg, args) }
func Warn(msg string, args ...any)  { emit("WRN", msg, args) }
func Error(msg string, args ...any) { emit("ERR", msg, args) }

func emit(level, msg string, args []any) {
	line := level + " " + msg
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = "?"
		}
		line += " " + key + "=" + fmtx.Sprint(args[i+1])
	}
	println(line)
}
