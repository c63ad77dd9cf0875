package widget

import (
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// PrefStore 是进程级的字符串键值存储，落盘为数据目录下的一个 JSON 文件，
// 生命周期跨进程重启。所有会话共享同一命名空间，写入即刷盘，
// 并发会话之间 last-writer-wins。
type PrefStore struct {
	mu     sync.Mutex
	path   string
	data   map[string]string
	logger *zap.SugaredLogger
}

// OpenPrefStore 打开（必要时新建）存储文件。文件损坏时从空数据起步并告警，
// 不让一个坏文件拦住整个宿主。
func OpenPrefStore(path string, logger *zap.SugaredLogger) (*PrefStore, error) {
	s := &PrefStore{
		path:   path,
		data:   map[string]string{},
		logger: logger,
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Wrap(err, "读取持久存储失败")
	}
	if len(raw) > 0 {
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &s.data); err != nil {
			if logger != nil {
				logger.Warnf("持久存储文件损坏，已重置: %v", err)
			}
			s.data = map[string]string{}
		}
	}
	return s, nil
}

func (s *PrefStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *PrefStore) Put(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.flushLocked()
}

func (s *PrefStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.flushLocked()
}

// Len 返回键数量。
func (s *PrefStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func (s *PrefStore) flushLocked() error {
	raw, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o644)
}
