package log

// CLI 进程的日志默认值：只写 stderr，文件轮转参数仅在设置 file_path 后生效
const (
	defaultLogLevel = "info"

	defaultToConsole = true
	defaultFilePath  = ""

	defaultMaxSize    = 100 // MB
	defaultMaxBackups = 10
	defaultMaxAge     = 30 // 天
	defaultCompress   = true

	defaultEnableCaller     = true
	defaultEnableStacktrace = true
)

// 控制台时间只保留时分秒，文件中使用 ISO8601
const consoleTimeLayout = "15:04:05.000"
