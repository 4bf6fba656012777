package keycache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/golang/snappy"

	keystoreconfig "github.com/weisyn/recordjoin/internal/config/keystore"
	"github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/recordjoin/pkg/types"
)

// 持久化键前缀
var keyPrefix = []byte("keys/")

// 编码标记
const (
	encodingRaw    byte = 0
	encodingSnappy byte = 1
)

// BadgerStore 基于 BadgerDB 的密钥持久化
//
// 🏗️ **存储格式**：value = [encoding(1)] [len(pk)(4)] [pk] [vk]，
// encoding 为 snappy 时 pk/vk 整体压缩。
type BadgerStore struct {
	db       *badgerdb.DB
	logger   log.Logger
	compress bool
}

// NewBadgerStore 打开密钥库
func NewBadgerStore(options *keystoreconfig.KeyStoreOptions, logger log.Logger) (*BadgerStore, error) {
	if options == nil || options.Path == "" {
		return nil, errors.New("keystore path is empty")
	}
	if err := os.MkdirAll(options.Path, 0o700); err != nil {
		return nil, fmt.Errorf("无法创建密钥库目录: %w", err)
	}

	opts := badgerdb.DefaultOptions(options.Path)
	opts.SyncWrites = true
	opts.Logger = &badgerLogger{logger: logger}
	// 密钥条目少而大，不需要大缓存
	opts.BlockCacheSize = 16 << 20
	opts.IndexCacheSize = 16 << 20
	opts.NumMemtables = 2
	opts.ValueLogFileSize = 64 << 20

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("打开密钥库失败: %w", err)
	}
	logger.Infof("密钥库已打开: %s", options.Path)
	return &BadgerStore{db: db, logger: logger, compress: options.Compress}, nil
}

func dbKey(key string) []byte {
	return append(append([]byte{}, keyPrefix...), key...)
}

// Load 读取密钥对
func (s *BadgerStore) Load(key string) (*types.KeyPair, bool, error) {
	var raw []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(dbKey(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("badger获取键失败: %w", err)
	}
	kp, err := decodeKeyPair(raw)
	if err != nil {
		return nil, false, err
	}
	return kp, true, nil
}

// Save 写入密钥对
func (s *BadgerStore) Save(key string, kp *types.KeyPair) error {
	value, err := encodeKeyPair(kp, s.compress)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(dbKey(key), value)
	})
}

// Delete 删除密钥对
func (s *BadgerStore) Delete(key string) error {
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(dbKey(key))
	})
}

// Clear 删除全部密钥
func (s *BadgerStore) Clear() error {
	return s.db.DropPrefix(keyPrefix)
}

// Close 关闭数据库
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("关闭密钥库失败: %w", err)
	}
	return nil
}

func encodeKeyPair(kp *types.KeyPair, compress bool) ([]byte, error) {
	pk, vk, err := types.MarshalKeyPair(kp)
	if err != nil {
		return nil, err
	}
	var body bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(pk)))
	body.Write(lenBuf[:])
	body.Write(pk)
	body.Write(vk)

	if compress {
		return append([]byte{encodingSnappy}, snappy.Encode(nil, body.Bytes())...), nil
	}
	return append([]byte{encodingRaw}, body.Bytes()...), nil
}

func decodeKeyPair(raw []byte) (*types.KeyPair, error) {
	if len(raw) < 1 {
		return nil, errors.New("empty key record")
	}
	body := raw[1:]
	switch raw[0] {
	case encodingRaw:
	case encodingSnappy:
		decoded, err := snappy.Decode(nil, body)
		if err != nil {
			return nil, fmt.Errorf("snappy decode: %w", err)
		}
		body = decoded
	default:
		return nil, fmt.Errorf("unknown key encoding %d", raw[0])
	}
	if len(body) < 4 {
		return nil, errors.New("truncated key record")
	}
	pkLen := binary.BigEndian.Uint32(body[:4])
	if uint64(len(body)-4) < uint64(pkLen) {
		return nil, errors.New("truncated proving key")
	}
	return types.UnmarshalKeyPair(body[4:4+pkLen], body[4+pkLen:])
}

// badgerLogger 实现BadgerDB的日志接口
type badgerLogger struct {
	logger log.Logger
}

// Errorf 输出错误日志
func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf("[BadgerDB] "+format, args...)
}

// Warningf 输出警告日志
func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf("[BadgerDB] "+format, args...)
}

// Infof 输出信息日志
func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf("[BadgerDB] "+format, args...)
}

// Debugf 输出调试日志
func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf("[BadgerDB] "+format, args...)
}
