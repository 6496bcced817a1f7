package service

import "errors"

// 领域错误。所有可恢复/冲突类错误都以哨兵值暴露，
// 调用方用 errors.Is 判定后决定重试或放弃；服务内部用 %w 包装补充上下文。
var (
	// ErrValidation 入参不合法（非正长度、缺密度等），任何写入前拒绝
	ErrValidation = errors.New("参数校验失败")
	// ErrNotFound 业务对象不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrInsufficientStock 可用库存不足以满足需求，补货或减量后可重试
	ErrInsufficientStock = errors.New("可用库存不足")
	// ErrInsufficientLength 单件剩余长度小于切割长度
	ErrInsufficientLength = errors.New("料件剩余长度不足")
	// ErrInvalidTransition 非法状态迁移，属调用方误用
	ErrInvalidTransition = errors.New("非法状态迁移")
	// ErrStalePiece 预选料件与当前台账不符，需重新计划
	ErrStalePiece = errors.New("预选料件已过期")
	// ErrConcurrentModification 发料校验时发现料件已被并发消耗，整单回滚
	ErrConcurrentModification = errors.New("料件已被并发修改")
	// ErrAlreadyResolved 收货单已有终局结果，幂等冲突
	ErrAlreadyResolved = errors.New("收货单已有终局结果")
	// ErrLockTimeout 发料锁等待超时，调用方应重新走计划-发料流程
	ErrLockTimeout = errors.New("获取发料锁超时")
	// ErrDraftNotOpen 方案不在可操作状态
	ErrDraftNotOpen = errors.New("切割方案不在草稿状态")
	// ErrOverAllocation 发料超出领料单需求且未授权超发
	ErrOverAllocation = errors.New("超出领料需求")
)
