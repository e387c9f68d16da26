// Package logger 提供全局 zap 日志实例，支持文件滚动输出。
package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options 日志初始化配置。
type Options struct {
	// Level: debug / info / warn / error，默认 info
	Level string
	// Format: json / console，默认 json
	Format string
	// FilePath 为空时只输出到 stdout
	FilePath string
	// 单个日志文件最大尺寸（MB）
	MaxSizeMB int
	// 保留的旧文件个数
	MaxBackups int
	// 保留天数
	MaxAgeDays int
}

var (
	mu     sync.RWMutex
	global = zap.NewNop()
)

// Init 按配置构建全局日志实例。重复调用会替换旧实例。
func Init(opts Options) error {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(opts.Level))); err != nil {
			return err
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if strings.EqualFold(opts.Format, "console") {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if opts.FilePath != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    defaultInt(opts.MaxSizeMB, 100),
			MaxBackups: defaultInt(opts.MaxBackups, 10),
			MaxAge:     defaultInt(opts.MaxAgeDays, 30),
			Compress:   true,
		}))
	}

	core := zapcore.NewCore(enc, zapcore.NewMultiWriteSyncer(sinks...), level)
	l := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	mu.Lock()
	global = l
	mu.Unlock()
	return nil
}

// L 返回全局日志实例。Init 之前返回 no-op logger。
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Sync 刷新缓冲日志。进程退出前调用。
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = global.Sync()
}

func defaultInt(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
