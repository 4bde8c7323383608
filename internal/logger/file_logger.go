package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger represents a file logger for trading session activities
type Logger struct {
	instrument string
	strategy   string
	logFile    *os.File
	logger     *log.Logger
	mu         sync.Mutex
	logDir     string
}

// LogLevel represents different types of log entries
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARN"
	LogLevelError   LogLevel = "ERROR"
	LogLevelTrade   LogLevel = "TRADE"
	LogLevelStatus  LogLevel = "STATUS"
)

// NewLogger creates a new file logger for the specified instrument and strategy
func NewLogger(instrument, strategy string) (*Logger, error) {
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("%s_%s_%s.log", instrument, strategy, timestamp)
	logPath := filepath.Join(logDir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &Logger{
		instrument: instrument,
		strategy:   strategy,
		logFile:    file,
		logger:     log.New(file, "", 0),
		logDir:     logDir,
	}

	l.writeSessionHeader()

	return l, nil
}

// writeSessionHeader writes a session start header to the log
func (l *Logger) writeSessionHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := fmt.Sprintf(`
================================================================================
🚀 PAPER TRADING SESSION STARTED
================================================================================
Instrument: %s | Strategy: %s
Started: %s
================================================================================
`, l.instrument, l.strategy, time.Now().Format("2006-01-02 15:04:05"))

	l.logger.Print(header)
}

// Log writes a formatted log entry with the specified level
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	l.logger.Println(fmt.Sprintf("[%s] [%s] %s", timestamp, level, message))
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// Trade logs a trading action
func (l *Logger) Trade(format string, args ...interface{}) {
	l.Log(LogLevelTrade, format, args...)
}

// Status logs session status information
func (l *Logger) Status(format string, args ...interface{}) {
	l.Log(LogLevelStatus, format, args...)
}

// LogTrade logs the open or close of a position
func (l *Logger) LogTrade(action, side string, price, size, pnl float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	tradeLog := fmt.Sprintf(`
[%s] [TRADE] ==================== %s ====================
📦 Side: %s | Size: %.4f %s
💰 Price: $%.4f
💵 Realized PnL: $%+.2f
=============================================================`,
		timestamp, action, side, size, l.instrument, price, pnl)

	l.logger.Println(tradeLog)
}

// LogSessionStatus logs a periodic session status block
func (l *Logger) LogSessionStatus(balance, dailyPnL, drawdown float64, openPositions int, riskLevel string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	statusLog := fmt.Sprintf(`
[%s] [STATUS] ==================== SESSION STATUS ====================
💼 Balance: $%.2f | Daily PnL: $%+.2f
📉 Drawdown: %.2f%% | Risk Level: %s
📊 Open Positions: %d
==========================================================`,
		timestamp, balance, dailyPnL, drawdown*100, riskLevel, openPositions)

	l.logger.Println(statusLog)
}

// LogError logs error with context
func (l *Logger) LogError(context string, err error) {
	l.Error("%s: %v", context, err)
}

// Close closes the log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		timestamp := time.Now().Format("2006-01-02 15:04:05")
		l.logger.Println(fmt.Sprintf("[%s] [%s] Session log closed", timestamp, LogLevelInfo))
		return l.logFile.Close()
	}
	return nil
}
