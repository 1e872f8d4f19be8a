package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - Model 错误：MODEL_NOT_READY（数据不足 / 秩过低）
//   - Engine 错误：INVALID_INPUT（非法请求数量）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "MODEL_NOT_READY"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "model", "engine"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*DomainError)
	return ok
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"       // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"   // 操作不支持
	ErrorCodeInvalidInput  = "INVALID_INPUT"   // 输入无效
	ErrorCodeModelNotReady = "MODEL_NOT_READY" // 模型不可用（数据不足 / 秩过低）
	ErrorCodeInternalError = "INTERNAL_ERROR"  // 内部错误
)

// 模块名称常量
const (
	ModuleStore     = "store"     // 存储模块
	ModuleModel     = "model"     // 隐因子模型模块
	ModuleEngine    = "engine"    // 推荐引擎模块
	ModuleTelemetry = "telemetry" // 埋点模块
)

// 通用领域错误
var (
	// ErrInvalidCount 表示请求数量非法（count <= 0）。
	// 这是引擎内唯一向调用方传播的使用错误。
	ErrInvalidCount = NewDomainError(ModuleEngine, ErrorCodeInvalidInput, "engine: requested count must be positive")

	// ErrModelNotReady 表示隐因子模型无法构建（评分太少或可用秩 < 2）。
	// 调用方应回退到 Item-CF 召回，而不是向上抛出。
	ErrModelNotReady = NewDomainError(ModuleModel, ErrorCodeModelNotReady, "model: not enough data to build factorization")
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsModelNotReady 检查错误是否为 MODEL_NOT_READY
func IsModelNotReady(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeModelNotReady
	}
	return false
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidInput
	}
	return false
}
