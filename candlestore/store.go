package candlestore

import (
	"errors"
	"sort"
	"sync"
	"time"

	"otter/model"
)

// ErrEmptyDataset : fetch는 성공했지만 봉이 0개. "이 구간에 데이터 없음"으로
// 취급해야 하며, 즉시 재시도할 에러가 아님
var ErrEmptyDataset = errors.New("empty dataset")

// Store : 시간축 하나의 봉 저장소. canonical timestamp를 키로 하고,
// fetch 성공 때마다 전체 교체함 (증분 머지 안 함 → 낡은 항목 섞일 여지 차단)
type Store struct {
	mu sync.RWMutex

	timeframe model.Timeframe
	candles   []model.Candle // Timestamp 오름차순
	byTS      map[int64]model.Candle

	// ReplaceAll마다 증가. 이 값이 바뀌면 이전 내용 기준으로 계산한
	// 마커 위치는 전부 무효임
	generation uint64
}

func New(timeframe model.Timeframe) *Store {
	return &Store{
		timeframe: timeframe,
		byTS:      make(map[int64]model.Candle),
	}
}

func (s *Store) Timeframe() model.Timeframe { return s.timeframe }

// ReplaceAll : 기존 내용을 버리고 새 봉 세트를 원자적으로 설치
func (s *Store) ReplaceAll(candles []model.Candle) error {
	if len(candles) == 0 {
		return ErrEmptyDataset
	}

	sorted := make([]model.Candle, len(candles))
	copy(sorted, candles)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	// 키 유일 보장. 같은 timestamp가 들어오면 뒤의 것(최신 부분봉)이 이김
	byTS := make(map[int64]model.Candle, len(sorted))
	unique := sorted[:0]
	for _, c := range sorted {
		if _, ok := byTS[c.Timestamp]; ok {
			unique[len(unique)-1] = c
		} else {
			unique = append(unique, c)
		}
		byTS[c.Timestamp] = c
	}

	s.mu.Lock()
	s.candles = unique
	s.byTS = byTS
	s.generation++
	s.mu.Unlock()
	return nil
}

// Clear : 세션 리셋용. generation도 올려서 기존 마커를 무효화함
func (s *Store) Clear() {
	s.mu.Lock()
	s.candles = nil
	s.byTS = make(map[int64]model.Candle)
	s.generation++
	s.mu.Unlock()
}

func (s *Store) Exact(ts int64) (model.Candle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byTS[ts]
	return c, ok
}

// Nearest : |entry - ts|가 최소인 봉을 찾되, 그 거리가 tolerance보다
// 엄격히 작아야만 반환. 거리가 같은 봉이 둘이면 먼저 만난(더 이른) 쪽이 이김
func (s *Store) Nearest(ts int64, tolerance time.Duration) (model.Candle, bool) {
	c, dist, ok := s.scanNearest(ts)
	if !ok || dist >= int64(tolerance/time.Second) {
		return model.Candle{}, false
	}
	return c, true
}

// NearestUnbounded : 허용오차 없이 가장 가까운 봉. 크로스헤어의 passive 차트
// 판독용 (저장소가 비어있을 때만 실패)
func (s *Store) NearestUnbounded(ts int64) (model.Candle, bool) {
	c, _, ok := s.scanNearest(ts)
	return c, ok
}

func (s *Store) scanNearest(ts int64) (model.Candle, int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.candles) == 0 {
		return model.Candle{}, 0, false
	}

	best := s.candles[0]
	bestDist := absDiff(best.Timestamp, ts)
	for _, c := range s.candles[1:] {
		if d := absDiff(c.Timestamp, ts); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist, true
}

// Candles : 현재 봉 전체 복사 반환 (오름차순)
func (s *Store) Candles() []model.Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Candle, len(s.candles))
	copy(out, s.candles)
	return out
}

func (s *Store) Last() (model.Candle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.candles) == 0 {
		return model.Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.candles)
}

func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.generation
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
