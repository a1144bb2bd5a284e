package classify

import (
	"testing"

	"github.com/smartwork/assistant/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndToEndKoreanScenario(t *testing.T) {
	settings := &models.UserSettings{SubMenus: models.CategoryKeywords{
		"dev": {"React", "API", "배포"},
	}}
	in := ForSettings(settings, "dev", "에러 발생: React 컴포넌트에서 API 호출 실패", "", nil)

	got := Classify(in)

	assert.ElementsMatch(t, []string{"React", "API", "issue"}, []string(got.Labels))
	require.NotNil(t, got.SubTag)
	assert.Equal(t, "React", *got.SubTag)
}

func TestSubTagFirstMatchWins(t *testing.T) {
	tag := SubTag("API gateway in front of the React app", []string{"React", "API"})
	require.NotNil(t, tag)
	assert.Equal(t, "React", *tag)

	tag = SubTag("API gateway in front of the React app", []string{"API", "React"})
	require.NotNil(t, tag)
	assert.Equal(t, "API", *tag)
}

func TestSubTagNilWhenNoKeywordMatches(t *testing.T) {
	assert.Nil(t, SubTag("회의록 정리", []string{"React"}))
	assert.Nil(t, SubTag("", []string{"React"}))
	assert.Nil(t, SubTag("React", nil))
}

func TestEmptyKeywordConfigOnlyHeuristics(t *testing.T) {
	got := Classify(Input{Content: "새로운 아이디어: 배포 자동화", Category: "dev"})
	assert.Equal(t, models.StringArray{"idea"}, got.Labels)
	assert.Nil(t, got.SubTag)

	got = Classify(Input{Content: "plain text without signals", Category: "dev", Keywords: []string{}})
	assert.Empty(t, got.Labels)
}

func TestIdempotentLabelSet(t *testing.T) {
	in := Input{
		Content:  "버그 리포트: API 응답 지연, API 타임아웃",
		Category: "dev",
		Keywords: []string{"API", "api", "배포"},
	}
	first := Classify(in)
	second := Classify(in)
	assert.Equal(t, first, second)

	in.ExistingLabels = first.Labels
	third := Classify(in)
	assert.ElementsMatch(t, []string(first.Labels), []string(third.Labels))

	seen := map[string]bool{}
	for _, l := range third.Labels {
		assert.False(t, seen[l], "duplicate label %q", l)
		seen[l] = true
	}
}

func TestExistingLabelsPreserved(t *testing.T) {
	got := Classify(Input{
		Content:        "회의 결과 공유",
		Category:       "meeting",
		ExistingLabels: []string{"update", "update"},
		Keywords:       []string{"회의"},
	})
	assert.Equal(t, models.StringArray{"update", "회의"}, got.Labels)
}

func TestHeuristicNotDuplicatedWhenAlreadyPresent(t *testing.T) {
	got := Classify(Input{
		Content:        "로그인 문제 재현",
		ExistingLabels: []string{"issue"},
	})
	assert.Equal(t, models.StringArray{"issue"}, got.Labels)
}

func TestSummaryBroadensLabelsButNotSubTag(t *testing.T) {
	got := Classify(Input{
		Content:  "오늘 작업 정리",
		Summary:  "배포 중 에러 확인",
		Category: "dev",
		Keywords: []string{"배포"},
	})
	assert.ElementsMatch(t, []string{"배포", "issue"}, []string(got.Labels))
	assert.Nil(t, got.SubTag)
}

func TestKeywordMatchIsCaseInsensitive(t *testing.T) {
	got := Classify(Input{Content: "refactor the REACT hooks", Keywords: []string{"React"}})
	assert.Equal(t, models.StringArray{"React"}, got.Labels)
	require.NotNil(t, got.SubTag)
	assert.Equal(t, "React", *got.SubTag)
}
