/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package logger

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jjos2372/signum-jminer/configs"
	"github.com/natefinch/lumberjack"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// log file names
const (
	LogRound    = "round"
	LogProgress = "progress"
	LogSubmit   = "submit"
	LogDrive    = "drive"
	LogPanic    = "panic"
)

var LogFiles = []string{
	LogRound,
	LogProgress,
	LogSubmit,
	LogDrive,
	LogPanic,
}

type Logger interface {
	Round(level zapcore.Level, msg string)
	Progress(level zapcore.Level, msg string)
	Submit(level zapcore.Level, msg string)
	Drive(level zapcore.Level, msg string)
	Pnc(msg string)
	Sync()
}

type Options struct {
	// Console also writes every log to stdout
	Console bool
	// Debug lowers the level from info to debug
	Debug bool
}

type logs struct {
	logpath map[string]string
	log     map[string]*zap.Logger
}

var _ Logger = (*logs)(nil)

// NewLogs opens one rolling log file per name. logfiles maps a name
// from LogFiles to its file path.
func NewLogs(logfiles map[string]string, opts Options) (Logger, error) {
	var (
		logpath = make(map[string]string, 0)
		logCli  = make(map[string]*zap.Logger)
	)
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if opts.Debug {
		level.SetLevel(zapcore.DebugLevel)
	}
	for name, fpath := range logfiles {
		dir := getFilePath(fpath)
		_, err := os.Stat(dir)
		if err != nil {
			err = os.MkdirAll(dir, configs.DirMode)
			if err != nil {
				return nil, errors.Errorf("%v,%v", dir, err)
			}
		}
		cores := []zapcore.Core{
			zapcore.NewCore(getEncoder(), getWriteSyncer(fpath), level),
		}
		if opts.Console {
			cores = append(cores, zapcore.NewCore(getEncoder(), zapcore.Lock(os.Stdout), level))
		}
		logpath[name] = fpath
		logCli[name] = zap.New(zapcore.NewTee(cores...)).Named(name)
	}
	return &logs{
		logpath: logpath,
		log:     logCli,
	}, nil
}

func (l *logs) write(name string, level zapcore.Level, msg string) {
	v, ok := l.log[name]
	if !ok {
		return
	}
	if ce := v.Check(level, msg); ce != nil {
		ce.Write()
	}
}

func (l *logs) Round(level zapcore.Level, msg string) {
	l.write(LogRound, level, msg)
}

func (l *logs) Progress(level zapcore.Level, msg string) {
	l.write(LogProgress, level, msg)
}

func (l *logs) Submit(level zapcore.Level, msg string) {
	l.write(LogSubmit, level, msg)
}

func (l *logs) Drive(level zapcore.Level, msg string) {
	l.write(LogDrive, level, msg)
}

func (l *logs) Pnc(msg string) {
	l.write(LogPanic, zapcore.ErrorLevel, msg)
}

func (l *logs) Sync() {
	for _, v := range l.log {
		_ = v.Sync()
	}
}

func getFilePath(fpath string) string {
	path, _ := filepath.Abs(fpath)
	index := strings.LastIndex(path, string(os.PathSeparator))
	ret := path[:index]
	return ret
}

func getEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(
		zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller_line",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    cEncodeLevel,
			EncodeTime:     cEncodeTime,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeName:     cEncodeName,
			EncodeCaller:   nil,
		})
}

func getWriteSyncer(fpath string) zapcore.WriteSyncer {
	lumberJackLogger := &lumberjack.Logger{
		Filename:   fpath,
		MaxSize:    10,
		MaxBackups: 99,
		MaxAge:     180,
		LocalTime:  true,
		Compress:   true,
	}
	return zapcore.AddSync(lumberJackLogger)
}

func cEncodeLevel(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + level.CapitalString() + "]")
}

func cEncodeTime(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + t.Format("2006-01-02 15:04:05") + "]")
}

func cEncodeName(name string, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + name + "]")
}
