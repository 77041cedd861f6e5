// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode/utf8"

	"github.com/jeranaias/giasu-tui/internal/format"
	"github.com/jeranaias/giasu-tui/internal/model"
)

// Question is one request to an Answerer.
type Question struct {
	Message      string
	Subject      string
	Mode         model.Mode
	SolutionMode model.SolutionMode

	// Image is an optional JPEG attachment.
	Image []byte
}

// Answerer produces the tutor's reply to a question.
type Answerer interface {
	Answer(ctx context.Context, q Question, history []Turn) (string, error)
	Name() string
}

// FallbackAnswer is returned when an answer could not be produced but the
// request itself was fine.
const FallbackAnswer = "Đã xảy ra lỗi khi xử lý yêu cầu của bạn. Vui lòng thử lại sau."

// ============================================================================
// PROMPTS
// ============================================================================

// solutionInstructions tell the model how to lay out exercise answers so the
// client can split the explanation from the answer.
var solutionInstructions = map[model.SolutionMode]string{
	model.SolutionFull: "Trình bày đáp án trước. Sau đó viết một dòng chỉ gồm " +
		format.SentinelExplanation + " rồi giải thích chi tiết.",
	model.SolutionStepByStep: "Trình bày đáp án trước. Sau đó viết một dòng chỉ gồm " +
		format.SentinelStepExplanation + " rồi giải thích từng bước.",
	model.SolutionHint: "Chỉ đưa ra gợi ý để học sinh tự giải, không đưa ra đáp án cuối cùng.",
}

// BuildPrompt turns a question into the prompt sent to a language model.
func BuildPrompt(q Question) string {
	if q.Mode == model.ModeExercise {
		var b strings.Builder
		fmt.Fprintf(&b, "Hãy giải bài tập môn %s sau đây mà không đưa ra giải thích nào: %s", q.Subject, q.Message)
		if instr, ok := solutionInstructions[q.SolutionMode]; ok {
			b.WriteString("\n\n")
			b.WriteString(instr)
		}
		return b.String()
	}
	return fmt.Sprintf("Trả lời bằng tiếng Việt về câu hỏi liên quan đến môn %s: %s", q.Subject, q.Message)
}

// ============================================================================
// CANNED ANSWERER
// ============================================================================

var greetings = []string{
	"Xin chào! Tôi là trợ lý AI học tập. Bạn cần giúp gì không?",
	"Chào bạn! Tôi có thể giúp bạn với các bài tập và câu hỏi học tập.",
	"Xin chào! Tôi sẵn sàng hỗ trợ bạn trong việc học tập.",
}

var greetingWords = []string{"chào", "hi", "hello", "xin chào"}

// maxGreetingRunes is the longest message still treated as a greeting.
const maxGreetingRunes = 10

const aiTypes = `Các loại AI theo mức độ phát triển:
1. AI hẹp (Narrow/Weak AI)
2. AI tổng quát (General AI)
3. AI siêu việt (Superintelligent AI)

Các loại AI theo phương pháp học:
1. Machine Learning (Học máy)
2. Deep Learning (Học sâu)
3. Reinforcement Learning (Học tăng cường)

Các loại AI theo ứng dụng:
1. Computer Vision (Thị giác máy tính)
2. Natural Language Processing (Xử lý ngôn ngữ tự nhiên)
3. Robotics (Robot học)
4. Expert Systems (Hệ thống chuyên gia)
5. Speech Recognition (Nhận dạng giọng nói)`

var aiTypeTriggers = []string{"loại ai", "các loại ai", "phân loại ai"}

// fallbackSubject answers for subjects without canned responses.
const fallbackSubject = "Toán học"

var subjectResponses = map[string][]string{
	"Toán học": {
		"Để giải bài toán này, bạn cần áp dụng công thức...",
		"Đây là một bài toán về hình học không gian. Trước tiên, chúng ta cần xác định...",
		"Bài tập này thuộc phần đại số. Cách giải như sau...",
	},
	"Ngữ văn": {
		"Tác phẩm này thuộc thể loại truyện ngắn, được sáng tác vào thời kỳ...",
		"Nhân vật chính trong tác phẩm này có đặc điểm...",
		"Phân tích đoạn văn này, ta thấy tác giả sử dụng nhiều biện pháp tu từ như...",
	},
	"Tiếng Anh": {
		"Cấu trúc ngữ pháp này được sử dụng để diễn tả...",
		"Đây là một phrasal verb, có nghĩa là...",
		"Để viết một email formal, bạn nên sử dụng những cụm từ như...",
	},
	"Vật lý": {
		"Hiện tượng này được giải thích bởi định luật...",
		"Để tính được lực tác dụng, ta áp dụng công thức...",
		"Bài toán này liên quan đến chuyển động của vật. Ta có thể giải như sau...",
	},
	"Hóa học": {
		"Phản ứng này thuộc loại phản ứng oxi hóa khử...",
		"Để cân bằng phương trình hóa học này, ta thực hiện các bước sau...",
		"Hợp chất này có cấu tạo phân tử gồm...",
	},
	"Sinh học": {
		"Quá trình trao đổi chất này diễn ra ở bào quan...",
		"Cấu trúc của tế bào gồm các thành phần chính là...",
		"Đặc điểm phân loại của sinh vật này là...",
	},
	"Lịch sử": {
		"Sự kiện này diễn ra vào thời kỳ...",
		"Nhân vật lịch sử này có đóng góp quan trọng là...",
		"Cuộc cách mạng này có ảnh hưởng sâu rộng đến...",
	},
	"Địa lý": {
		"Vùng địa lý này có đặc điểm khí hậu...",
		"Dân cư ở khu vực này chủ yếu sống bằng nghề...",
		"Đây là vùng núi được hình thành do quá trình...",
	},
	"Công nghệ": {
		"Quy trình sản xuất sản phẩm này gồm các bước...",
		"Nguyên lý hoạt động của thiết bị này dựa trên...",
		"Khi lập trình, ta cần lưu ý các cấu trúc điều khiển như...",
	},
	"Giáo dục công dân": {
		"Quyền và nghĩa vụ công dân được quy định trong Hiến pháp bao gồm...",
		"Đạo đức xã hội được thể hiện qua các chuẩn mực như...",
		"Khi giải quyết tình huống này, cần căn cứ vào pháp luật về...",
	},
	"Tin học": {
		"Thuật toán này có độ phức tạp là...",
		"Để thiết kế cơ sở dữ liệu, ta cần phân tích các thực thể và mối quan hệ...",
		"Ngôn ngữ lập trình này có các cấu trúc điều khiển như...",
	},
}

// CannedAnswerer answers from a fixed table without calling any model.
// The same question always gets the same answer.
type CannedAnswerer struct{}

// Name identifies the answerer in logs and /health.
func (CannedAnswerer) Name() string { return "canned" }

// Answer picks a canned reply. In exercise mode the reply carries an
// explanation section laid out the way a real model is asked to.
func (CannedAnswerer) Answer(_ context.Context, q Question, _ []Turn) (string, error) {
	lower := strings.ToLower(q.Message)

	for _, trigger := range aiTypeTriggers {
		if strings.Contains(lower, trigger) {
			return aiTypes, nil
		}
	}

	if len(q.Image) == 0 && utf8.RuneCountInString(strings.TrimSpace(q.Message)) < maxGreetingRunes {
		for _, word := range greetingWords {
			if strings.Contains(lower, word) {
				return greetings[pick(q.Message, len(greetings))], nil
			}
		}
	}

	responses, ok := subjectResponses[q.Subject]
	if !ok {
		responses = subjectResponses[fallbackSubject]
	}
	answer := responses[pick(q.Subject+"\x00"+q.Message, len(responses))]
	if len(q.Image) > 0 {
		answer = "Tôi đã nhận được hình ảnh của bạn. " + answer
	}

	if q.Mode != model.ModeExercise {
		return answer, nil
	}
	switch q.SolutionMode {
	case model.SolutionStepByStep:
		return answer + "\n\n" + format.SentinelStepExplanation + "\n" +
			"1. Đọc kỹ đề bài và xác định dữ kiện.\n" +
			"2. Chọn kiến thức môn " + q.Subject + " phù hợp.\n" +
			"3. Áp dụng và kiểm tra lại kết quả.", nil
	case model.SolutionHint:
		return "Gợi ý: " + answer, nil
	default:
		return answer + "\n\n" + format.SentinelExplanation + "\n" +
			"Bài này áp dụng kiến thức cơ bản của môn " + q.Subject + ".", nil
	}
}

func pick(key string, n int) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}
