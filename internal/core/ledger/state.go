// Package ledger 提供账本节点的 REST 客户端与开发用的内存账本状态
//
// 🏗️ **组成**：
//   - RESTClient：InclusionResolver 使用的远程节点客户端
//   - State：开发节点（recordjoin mocknode）背后的内存账本，维护承诺 Merkle 树与已花费序列号
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/weisyn/recordjoin/pkg/types"
	"github.com/weisyn/recordjoin/pkg/utils/field"
)

// 账本状态错误
var (
	// ErrUnknownCommitment 承诺不在账本中
	ErrUnknownCommitment = errors.New("unknown commitment")

	// ErrAlreadySpent 序列号已被花费
	ErrAlreadySpent = errors.New("serial number already spent")

	// ErrRootMismatch 查询固定的状态根不是当前状态根
	ErrRootMismatch = errors.New("state root is not current")
)

// State 内存账本状态
type State struct {
	mu     sync.RWMutex
	tree   *field.MerkleTree
	spent  map[string]struct{}
	height uint64

	subMu       sync.Mutex
	subscribers map[int]chan *types.LedgerUpdate
	nextSubID   int
}

// NewState 创建指定 Merkle 深度的账本
func NewState(depth int) (*State, error) {
	tree, err := field.NewMerkleTree(depth)
	if err != nil {
		return nil, err
	}
	return &State{
		tree:        tree,
		spent:       make(map[string]struct{}),
		subscribers: make(map[int]chan *types.LedgerUpdate),
	}, nil
}

// Root 当前状态根
func (s *State) Root() *types.StateRootInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &types.StateRootInfo{StateRoot: field.Hex(s.tree.Root()), Height: s.height}
}

// AddCommitments 追加承诺（一个新区块），返回新的状态根
func (s *State) AddCommitments(commitments ...string) (*types.StateRootInfo, error) {
	leaves := make([]field.Element, len(commitments))
	for i, c := range commitments {
		e, err := field.FromHex(c)
		if err != nil {
			return nil, fmt.Errorf("commitment %d: %w", i, err)
		}
		leaves[i] = e
	}

	s.mu.Lock()
	for _, leaf := range leaves {
		if _, err := s.tree.Append(leaf); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	s.height++
	s.mu.Unlock()

	info := s.Root()
	s.notify(&types.LedgerUpdate{Kind: types.LedgerUpdateCommitments, StateRoot: info.StateRoot, Height: info.Height, Items: commitments})
	return info, nil
}

// AddRecords 追加记录承诺
func (s *State) AddRecords(records ...*types.Record) (*types.StateRootInfo, error) {
	commitments := make([]string, len(records))
	for i, r := range records {
		cm, err := r.Commitment()
		if err != nil {
			return nil, err
		}
		commitments[i] = field.Hex(cm)
	}
	return s.AddCommitments(commitments...)
}

// MarkSpent 标记序列号已花费
func (s *State) MarkSpent(serialNumbers ...string) {
	s.mu.Lock()
	for _, sn := range serialNumbers {
		s.spent[sn] = struct{}{}
	}
	s.mu.Unlock()

	info := s.Root()
	s.notify(&types.LedgerUpdate{Kind: types.LedgerUpdateSpent, StateRoot: info.StateRoot, Height: info.Height, Items: serialNumbers})
}

// Subscribe 订阅账本变更
//
// 通道满时丢弃新的变更，订阅方需要自行用 Root() 对账。
// 返回的 cancel 关闭通道并注销订阅，可重复调用。
func (s *State) Subscribe(buffer int) (<-chan *types.LedgerUpdate, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan *types.LedgerUpdate, buffer)

	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *State) notify(update *types.LedgerUpdate) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- update:
		default:
		}
	}
}

// Inclusion 生成 Merkle 路径
func (s *State) Inclusion(query *types.InclusionQuery) (*types.InclusionProof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	root := field.Hex(s.tree.Root())
	if query.StateRoot != "" && query.StateRoot != root {
		return nil, fmt.Errorf("%w: pinned %s, current %s", ErrRootMismatch, query.StateRoot, root)
	}
	for _, sn := range query.SerialNumbers {
		if _, ok := s.spent[sn]; ok {
			return nil, fmt.Errorf("%w: %s", ErrAlreadySpent, sn)
		}
	}

	proof := &types.InclusionProof{StateRoot: root, Height: s.height}
	for _, c := range query.Commitments {
		leaf, err := field.FromHex(c)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCommitment, c)
		}
		idx, ok := s.tree.IndexOf(leaf)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCommitment, c)
		}
		siblings, err := s.tree.Path(idx)
		if err != nil {
			return nil, err
		}
		path := types.MerklePath{Commitment: c, Index: idx, Siblings: make([]string, len(siblings))}
		for i, sib := range siblings {
			path.Siblings[i] = field.Hex(sib)
		}
		proof.Paths = append(proof.Paths, path)
	}
	return proof, nil
}
