package logger

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	ansiReset  = "\033[0m"
	ansiDim    = "\033[2m"
	ansiBold   = "\033[1m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiCyan   = "\033[36m"
)

var bufferPool = buffer.NewPool()

// consoleEncoder writes one compact line per entry:
//
//	13:04:35  catalog  Dataset installed  study=UPittSSRI subjects=42
//
// Level is only printed for debug and WARN and above. Color is optional so
// tests and redirected output stay plain.
type consoleEncoder struct {
	fields []zapcore.Field // accumulated through With
	color  bool
}

func (enc *consoleEncoder) with(fields []zapcore.Field) *consoleEncoder {
	all := make([]zapcore.Field, 0, len(enc.fields)+len(fields))
	all = append(all, enc.fields...)
	all = append(all, fields...)
	return &consoleEncoder{fields: all, color: enc.color}
}

func (enc *consoleEncoder) paint(code, s string) string {
	if !enc.color || code == "" {
		return s
	}
	return code + s + ansiReset
}

func (enc *consoleEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line := bufferPool.Get()

	line.AppendString(enc.paint(ansiDim, ent.Time.Format("15:04:05")))

	switch {
	case ent.Level >= zapcore.ErrorLevel:
		line.AppendString("  ")
		line.AppendString(enc.paint(ansiBold+ansiRed, ent.Level.CapitalString()))
	case ent.Level == zapcore.WarnLevel:
		line.AppendString("  ")
		line.AppendString(enc.paint(ansiBold+ansiYellow, "WARN"))
	case ent.Level == zapcore.DebugLevel:
		line.AppendString("  ")
		line.AppendString(enc.paint(ansiDim, "debug"))
	}

	if ent.LoggerName != "" {
		line.AppendString("  ")
		line.AppendString(enc.paint(ansiCyan, ent.LoggerName))
	}

	line.AppendString("  ")
	line.AppendString(ent.Message)

	all := make([]zapcore.Field, 0, len(enc.fields)+len(fields))
	all = append(all, enc.fields...)
	all = append(all, fields...)
	if kv := formatFields(all); kv != "" {
		line.AppendString("  ")
		line.AppendString(enc.paint(ansiDim, kv))
	}

	line.AppendString("\n")
	return line, nil
}

// formatFields renders fields as key=value pairs in key order
func formatFields(fields []zapcore.Field) string {
	if len(fields) == 0 {
		return ""
	}
	m := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(m)
	}
	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m.Fields[k]))
	}
	return strings.Join(parts, " ")
}

// consoleCore keeps With() fields on the encoder so EncodeEntry can print them
type consoleCore struct {
	zapcore.LevelEnabler
	enc *consoleEncoder
	out zapcore.WriteSyncer
}

func newConsoleCore(enc *consoleEncoder, out zapcore.WriteSyncer, level zapcore.LevelEnabler) zapcore.Core {
	return &consoleCore{LevelEnabler: level, enc: enc, out: out}
}

func (c *consoleCore) With(fields []zapcore.Field) zapcore.Core {
	return &consoleCore{LevelEnabler: c.LevelEnabler, enc: c.enc.with(fields), out: c.out}
}

func (c *consoleCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *consoleCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	_, err = c.out.Write(buf.Bytes())
	buf.Free()
	if ent.Level > zapcore.ErrorLevel {
		_ = c.out.Sync()
	}
	return err
}

func (c *consoleCore) Sync() error {
	return c.out.Sync()
}
