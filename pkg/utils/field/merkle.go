package field

import (
	"errors"
	"fmt"
	"sync"
)

// MaxMerkleDepth 最大树深度（与电路工厂的限制一致）
const MaxMerkleDepth = 32

// ErrMerkleTreeFull 树已满
var ErrMerkleTreeFull = errors.New("merkle tree is full")

// MerkleTree 仅追加的 MiMC Merkle 树
//
// 🏗️ **结构**：叶子为记录承诺，内部节点为 Hash(left, right)，
// 空位置使用逐层预计算的零值哈希补齐。
type MerkleTree struct {
	mu     sync.RWMutex
	depth  int
	leaves []Element
	zeros  []Element // zeros[i] 为高度 i 的空子树根
}

// NewMerkleTree 创建指定深度的 Merkle 树
func NewMerkleTree(depth int) (*MerkleTree, error) {
	if depth <= 0 || depth > MaxMerkleDepth {
		return nil, fmt.Errorf("invalid merkle depth %d (1..%d)", depth, MaxMerkleDepth)
	}
	return &MerkleTree{
		depth: depth,
		zeros: zeroHashes(depth),
	}, nil
}

func zeroHashes(depth int) []Element {
	zeros := make([]Element, depth+1)
	for i := 1; i <= depth; i++ {
		zeros[i] = Hash(zeros[i-1], zeros[i-1])
	}
	return zeros
}

// Depth 树深度
func (t *MerkleTree) Depth() int { return t.depth }

// Len 叶子数量
func (t *MerkleTree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.leaves)
}

// Append 追加叶子并返回其索引
func (t *MerkleTree) Append(leaf Element) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if uint64(len(t.leaves)) >= uint64(1)<<uint(t.depth) {
		return 0, ErrMerkleTreeFull
	}
	t.leaves = append(t.leaves, leaf)
	return uint64(len(t.leaves) - 1), nil
}

// IndexOf 查找叶子索引
func (t *MerkleTree) IndexOf(leaf Element) (uint64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := range t.leaves {
		if t.leaves[i].Equal(&leaf) {
			return uint64(i), true
		}
	}
	return 0, false
}

// Root 当前根
func (t *MerkleTree) Root() Element {
	t.mu.RLock()
	defer t.mu.RUnlock()
	level := t.levelNodes()
	return level[len(level)-1][0]
}

// Path 返回叶子到根的兄弟节点列表
func (t *MerkleTree) Path(index uint64) ([]Element, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if index >= uint64(len(t.leaves)) {
		return nil, fmt.Errorf("leaf index %d out of range", index)
	}
	levels := t.levelNodes()
	siblings := make([]Element, t.depth)
	idx := index
	for h := 0; h < t.depth; h++ {
		sib := idx ^ 1
		if sib < uint64(len(levels[h])) {
			siblings[h] = levels[h][sib]
		} else {
			siblings[h] = t.zeros[h]
		}
		idx >>= 1
	}
	return siblings, nil
}

// levelNodes 自底向上计算每一层的非空节点，调用方需持有读锁
func (t *MerkleTree) levelNodes() [][]Element {
	levels := make([][]Element, t.depth+1)
	levels[0] = t.leaves
	for h := 0; h < t.depth; h++ {
		cur := levels[h]
		n := (len(cur) + 1) / 2
		if n == 0 {
			n = 1
		}
		next := make([]Element, n)
		for i := 0; i < n; i++ {
			left := t.zeros[h]
			right := t.zeros[h]
			if 2*i < len(cur) {
				left = cur[2*i]
			}
			if 2*i+1 < len(cur) {
				right = cur[2*i+1]
			}
			next[i] = Hash(left, right)
		}
		levels[h+1] = next
	}
	return levels
}

// VerifyPath 校验叶子在给定根下的 Merkle 路径
func VerifyPath(leaf Element, index uint64, siblings []Element, root Element) bool {
	cur := leaf
	idx := index
	for i := range siblings {
		if idx&1 == 0 {
			cur = Hash(cur, siblings[i])
		} else {
			cur = Hash(siblings[i], cur)
		}
		idx >>= 1
	}
	return idx == 0 && cur.Equal(&root)
}
