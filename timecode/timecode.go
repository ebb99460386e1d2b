// timecode : 차트 엔진 전체에서 쓰는 canonical timestamp 인코딩.
//
// 봉이 기록된 시점과 표시되는 시점의 타임존 변환 드리프트를 막기 위해,
// 로컬 시각의 달력 필드(Y/M/D/h/m/s)를 그대로 UTC epoch로 재해석한다 (fake-UTC).
// 같은 달력 필드면 호스트 타임존이 무엇이든 항상 같은 값이 나옴
package timecode

import "time"

// Encode : localMoment -> canonical timestamp (초)
func Encode(t time.Time) int64 {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC).Unix()
}

// ToTime : canonical timestamp -> 달력 필드가 같은 UTC time.Time
func ToTime(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}

// ISOWeekID : year*100 + ISO 주번호. 주봉 라벨/경계 비교에만 사용
// (해당 날짜의 목요일이 속한 연도가 ISO 연도가 됨)
func ISOWeekID(t time.Time) int {
	year, week := t.ISOWeek()
	return year*100 + week
}
