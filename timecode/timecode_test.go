package timecode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// 달력 필드가 같으면 타임존과 무관하게 항상 같은 canonical timestamp가 나와야 함
func TestEncode_TimezoneOblivious(t *testing.T) {
	kst, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	inKST := time.Date(2024, 3, 15, 9, 7, 0, 0, kst)
	inNY := time.Date(2024, 3, 15, 9, 7, 0, 0, ny)
	inUTC := time.Date(2024, 3, 15, 9, 7, 0, 0, time.UTC)

	require.Equal(t, Encode(inUTC), Encode(inKST))
	require.Equal(t, Encode(inUTC), Encode(inNY))
}

func TestEncode_Monotonic(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	prev := Encode(base)
	for i := 1; i <= 24*7; i++ {
		cur := Encode(base.Add(time.Duration(i) * 10 * time.Minute))
		require.Greater(t, cur, prev)
		prev = cur
	}
}

func TestToTime_RoundTrip(t *testing.T) {
	moment := time.Date(2024, 6, 3, 14, 50, 0, 0, time.Local)
	ts := Encode(moment)
	back := ToTime(ts)

	require.Equal(t, moment.Year(), back.Year())
	require.Equal(t, moment.Month(), back.Month())
	require.Equal(t, moment.Day(), back.Day())
	require.Equal(t, moment.Hour(), back.Hour())
	require.Equal(t, moment.Minute(), back.Minute())
	require.Equal(t, ts, Encode(back))
}

func TestISOWeekID(t *testing.T) {
	// 2024-01-01(월) => 2024년 1주차
	require.Equal(t, 202401, ISOWeekID(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	// 2023-12-31(일)은 목요일 기준으로 2023년 52주차에 속함
	require.Equal(t, 202352, ISOWeekID(time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC)))

	// 2021-01-01(금)은 2020년 53주차 (ISO 연도 경계)
	require.Equal(t, 202053, ISOWeekID(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))
}
