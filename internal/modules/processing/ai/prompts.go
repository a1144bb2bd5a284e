package ai

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	generalSummaryPrompt = "다음 내용을 3줄 이내로 핵심만 요약해줘. (어투: '~함', '~임'체):\n\n%s"

	workSummaryPrompt = "다음 업무 관련 내용을 간결하게 요약해주세요. 핵심 포인트와 필요한 조치 사항이 있다면 포함해주세요. 한국어로 작성해주세요.\n\n내용:\n%s"

	schedulePrompt = `Context:
- Current Date (KST): %s (%s요일)
- Current Time: %s
Input: "%s"

Task:
1. Summarize the input into a concise "Summary" in Korean.
2. Extract schedule/event information for Google Calendar.
   - "내일" = Date after %s.
   - "오늘" = %s.
   - If time is mentioned (e.g. "10시"), convert to ISO format (YYYY-MM-DDTHH:mm:00). Assume 24h format or reasonable AM/PM (e.g. 10시 -> 10:00, 14시 -> 14:00).
   - Use the remaining text (e.g. "123", "Meeting") as the "title". If absolutely no title, use "새로운 일정".

3. Return ONLY a JSON object:
{
  "summary": "Summary text",
  "schedule": {
    "title": "Event Title",
    "start": "YYYY-MM-DDTHH:mm:00",
    "end": "YYYY-MM-DDTHH:mm:00",
    "location": "Location or null"
  }
}
If NO date/time is mentioned, set "schedule": null.`

	intentPrompt = `현재 시각: %s

사용자의 입력 텍스트를 분석해서 "일정(Schedule)"과 관련된 정보가 있는지 파악해줘.
JSON 형식으로만 응답해줘. 설명은 필요 없어.

입력: "%s"

응답 포맷:
{
    "isSchedule": boolean,
    "summary": string,
    "startDateTime": string,
    "endDateTime": string,
    "description": string,
    "location": string
}
isSchedule은 일정 관련 내용이면 true, summary는 일정 제목 (예: 마케팅 회의),
startDateTime과 endDateTime은 YYYY-MM-DDTHH:mm:ss 형식 (종료는 기본 1시간, 추정 불가능하면 null),
description은 기타 세부 내용, location은 장소 정보 (없으면 null).`

	architecturePrompt = `You are a Senior System Architect.
Based on the following list of features/components in a software project, generate a **Mermaid.js** diagram code that visualizes the system architecture.

SYSTEM FEATURES:
%s

INSTRUCTIONS:
1. Create a "graph TD" (Flowchart) or "classDiagram" depending on what fits best. A Flowchart showing relationships is usually best.
2. Group items by their 'type' (frontend, backend, database, external) using subgraphs if possible (for flowchart).
3. Use the 'name' and 'techStack' to label nodes.
4. Infer relationships based on descriptions (e.g., if Feature A mentions "Google Calendar", link it to the External Service).
5. Return ONLY the raw Mermaid code. Do not wrap it in markdown code blocks.
6. Keep it simple and readable.`
)

var koreanWeekdays = [...]string{"일", "월", "화", "수", "목", "금", "토"}

func buildGeneralSummaryPrompt(text string) string {
	return fmt.Sprintf(generalSummaryPrompt, text)
}

func buildWorkSummaryPrompt(content string) string {
	return fmt.Sprintf(workSummaryPrompt, content)
}

// buildSchedulePrompt anchors relative dates ("오늘", "내일") to now in KST.
func buildSchedulePrompt(text string, now time.Time) string {
	kst := now.In(kstLocation())
	today := kst.Format("2006-01-02")
	return fmt.Sprintf(schedulePrompt,
		today, koreanWeekdays[kst.Weekday()], kst.Format("15:04:05"),
		text, today, today)
}

func buildIntentPrompt(content string, now time.Time) string {
	return fmt.Sprintf(intentPrompt, now.In(kstLocation()).Format("2006. 1. 2. 15:04:05"), content)
}

func buildArchitecturePrompt(features []json.RawMessage) string {
	raw, _ := json.MarshalIndent(features, "", "  ")
	return fmt.Sprintf(architecturePrompt, raw)
}

func kstLocation() *time.Location {
	if loc, err := time.LoadLocation("Asia/Seoul"); err == nil {
		return loc
	}
	return time.FixedZone("KST", 9*60*60)
}
