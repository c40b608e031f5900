package service

import (
	"math"
	"testing"
	"time"

	"student_engagement_backend/internal/model"
)

func TestComputeEngagementScoreBounds(t *testing.T) {
	empty := &model.EngagementAggregate{}
	// 没有分心记录时注意力分默认给满
	if got := ComputeEngagementScore(empty); got != 15 {
		t.Fatalf("empty aggregate score = %d, want 15", got)
	}

	maxed := &model.EngagementAggregate{
		TotalTimeSpent:   3600,
		FocusTime:        3600,
		ScrollDepth:      100,
		Clicks:           50,
		CursorMovements:  1000,
		DistractionCount: 0,
	}
	if got := ComputeEngagementScore(maxed); got != 100 {
		t.Fatalf("maxed aggregate score = %d, want 100", got)
	}
}

func TestComputeEngagementScoreComponents(t *testing.T) {
	tests := []struct {
		name string
		agg  model.EngagementAggregate
		want int
	}{
		{
			// 10 分钟 = 20 分时长，专注一半 = 12.5 分，注意力满 15 分
			name: "time and focus",
			agg:  model.EngagementAggregate{TotalTimeSpent: 600, FocusTime: 300},
			want: 47,
		},
		{
			// 纯分心没有回归，注意力得 0
			name: "all distraction",
			agg:  model.EngagementAggregate{DistractionCount: 4, ReturnCount: 0},
			want: 0,
		},
		{
			// 分心 2 回归 2，注意力得一半
			name: "half attention",
			agg:  model.EngagementAggregate{DistractionCount: 2, ReturnCount: 2},
			want: 7,
		},
		{
			// 交互分封顶 20
			name: "interaction capped",
			agg:  model.EngagementAggregate{Clicks: 100, CursorMovements: 5000},
			want: 35,
		},
		{
			// 滚动 50% 得 7.5 分
			name: "scroll half",
			agg:  model.EngagementAggregate{ScrollDepth: 50},
			want: 22,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeEngagementScore(&tt.agg); got != tt.want {
				t.Fatalf("score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestApplyEventRollupRules(t *testing.T) {
	agg := &model.EngagementAggregate{}

	applyEvent(agg, model.ActivityTimeSpent, map[string]interface{}{"duration": 30.0}, nil, time.Now())
	applyEvent(agg, model.ActivityTimeSpent, map[string]interface{}{"duration": 15.0}, nil, time.Now())
	if agg.TotalTimeSpent != 45 {
		t.Fatalf("TotalTimeSpent = %v, want 45", agg.TotalTimeSpent)
	}

	// 滚动深度只增不减
	applyEvent(agg, model.ActivityScroll, map[string]interface{}{"max_scroll_depth": 60.0}, nil, time.Now())
	applyEvent(agg, model.ActivityScroll, map[string]interface{}{"max_scroll_depth": 40.0}, nil, time.Now())
	if agg.ScrollDepth != 60 {
		t.Fatalf("ScrollDepth = %v, want 60", agg.ScrollDepth)
	}

	applyEvent(agg, model.ActivityCursorMove, nil, nil, time.Now())
	applyEvent(agg, model.ActivityClick, nil, nil, time.Now())
	applyEvent(agg, "video_play", nil, nil, time.Now())
	if agg.CursorMovements != 1 || agg.Clicks != 2 {
		t.Fatalf("cursor/clicks = %d/%d, want 1/2", agg.CursorMovements, agg.Clicks)
	}

	applyEvent(agg, model.ActivityPageHidden, nil, nil, time.Now())
	applyEvent(agg, model.ActivityPageVisible, nil, nil, time.Now())
	if agg.DistractionCount != 1 || agg.ReturnCount != 1 {
		t.Fatalf("distraction/return = %d/%d, want 1/1", agg.DistractionCount, agg.ReturnCount)
	}

	// 最近值覆盖
	applyEvent(agg, model.ActivityReadingSpeed, map[string]interface{}{"wpm": 180.0}, nil, time.Now())
	applyEvent(agg, model.ActivityReadingSpeed, map[string]interface{}{"wpm": 210.0}, nil, time.Now())
	if agg.ReadingSpeed != 210 {
		t.Fatalf("ReadingSpeed = %v, want 210", agg.ReadingSpeed)
	}

	// 粘贴和笔记只存事件，聚合不动
	before := *agg
	applyEvent(agg, model.ActivityPaste, map[string]interface{}{"length": 100.0}, nil, time.Now())
	applyEvent(agg, model.ActivityNotesSave, nil, nil, time.Now())
	if *agg != before {
		t.Fatal("paste/notes_save must not change the aggregate")
	}
}

func TestApplyEventMalformedPayload(t *testing.T) {
	agg := &model.EngagementAggregate{TotalTimeSpent: 10}

	// duration 不是数值时跳过本次累加
	applyEvent(agg, model.ActivityTimeSpent, map[string]interface{}{"duration": "abc"}, nil, time.Now())
	if agg.TotalTimeSpent != 10 {
		t.Fatalf("TotalTimeSpent = %v, want unchanged 10", agg.TotalTimeSpent)
	}

	applyEvent(agg, model.ActivityScroll, map[string]interface{}{}, nil, time.Now())
	if agg.ScrollDepth != 0 {
		t.Fatalf("ScrollDepth = %v, want unchanged 0", agg.ScrollDepth)
	}
}

func TestApplySessionEndSnapshot(t *testing.T) {
	start := time.Now().Add(-100 * time.Second)
	agg := &model.EngagementAggregate{TotalTimeSpent: 30, Clicks: 2}

	data := map[string]interface{}{
		"total_time_spent":       80.0,
		"total_focus_time":       60.0,
		"total_idle_time":        20.0,
		"max_scroll_depth":       90.0,
		"total_cursor_movements": 500.0,
		"total_clicks":           12.0,
		"distraction_count":      3.0,
		"return_count":           2.0,
		"avg_attention_span":     45.0,
	}
	applySessionEnd(agg, data, &start, time.Now())

	if agg.TotalTimeSpent != 80 || agg.FocusTime != 60 || agg.IdleTime != 20 {
		t.Fatalf("time fields = %v/%v/%v, want 80/60/20", agg.TotalTimeSpent, agg.FocusTime, agg.IdleTime)
	}
	if agg.Clicks != 12 || agg.CursorMovements != 500 {
		t.Fatalf("clicks/cursor = %d/%d, want 12/500", agg.Clicks, agg.CursorMovements)
	}
	if agg.ScrollDepth != 90 || agg.AttentionSpan != 45 {
		t.Fatalf("scroll/attention = %v/%v, want 90/45", agg.ScrollDepth, agg.AttentionSpan)
	}
}

func TestApplySessionEndClampsToElapsed(t *testing.T) {
	// 会话只开始了 50 秒，客户端却上报了 500 秒
	start := time.Now().Add(-50 * time.Second)
	agg := &model.EngagementAggregate{}

	applySessionEnd(agg, map[string]interface{}{
		"total_time_spent": 500.0,
		"total_focus_time": 400.0,
		"total_idle_time":  300.0,
	}, &start, time.Now())

	if agg.TotalTimeSpent > 51 || agg.FocusTime > 51 || agg.IdleTime > 51 {
		t.Fatalf("time fields not clamped: %v/%v/%v", agg.TotalTimeSpent, agg.FocusTime, agg.IdleTime)
	}
}

func TestApplySessionEndWithoutSession(t *testing.T) {
	// 没有会话时无法钳制，按原值接受
	agg := &model.EngagementAggregate{}
	applySessionEnd(agg, map[string]interface{}{"total_time_spent": 500.0}, nil, time.Now())
	if agg.TotalTimeSpent != 500 {
		t.Fatalf("TotalTimeSpent = %v, want 500", agg.TotalTimeSpent)
	}
}

func TestPayloadFloat(t *testing.T) {
	data := map[string]interface{}{
		"f":   12.5,
		"i":   3,
		"s":   "nope",
		"nan": math.NaN(),
	}

	if v, ok := payloadFloat(data, "f"); !ok || v != 12.5 {
		t.Fatalf("float64 key: got %v %v", v, ok)
	}
	if v, ok := payloadFloat(data, "i"); !ok || v != 3 {
		t.Fatalf("int key: got %v %v", v, ok)
	}
	if _, ok := payloadFloat(data, "s"); ok {
		t.Fatal("string value must not parse")
	}
	if _, ok := payloadFloat(data, "missing"); ok {
		t.Fatal("missing key must not parse")
	}
	// 候选键按顺序取第一个命中的
	if v, ok := payloadFloat(data, "missing", "f"); !ok || v != 12.5 {
		t.Fatalf("fallback key: got %v %v", v, ok)
	}
}

func TestKnownActivityType(t *testing.T) {
	for _, known := range []string{"time_spent", "scroll", "session_end", "video_play", "video_seek"} {
		if !model.KnownActivityType(known) {
			t.Fatalf("%q should be known", known)
		}
	}
	for _, unknown := range []string{"", "telemetry_blob", "videoplay"} {
		if model.KnownActivityType(unknown) {
			t.Fatalf("%q should be unknown", unknown)
		}
	}
}
