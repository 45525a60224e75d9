package domain

import "time"

// SlideType identifies the interaction kind of a slide. The aggregation
// strategy, validation rules and submission semantics all key off this.
type SlideType string

const (
	SlideMultipleChoice SlideType = "multiple_choice"
	SlideWordCloud      SlideType = "word_cloud"
	SlideOpenEnded      SlideType = "open_ended"
	SlideScales         SlideType = "scales"
	SlideRanking        SlideType = "ranking"
	SlideQna            SlideType = "qna"
	SlideGuessNumber    SlideType = "guess_number"
	SlideHundredPoints  SlideType = "hundred_points"
	SlideTwoByTwoGrid   SlideType = "2x2_grid"
	SlidePinOnImage     SlideType = "pin_on_image"
	SlideQuiz           SlideType = "quiz"
	SlideLeaderboard    SlideType = "leaderboard"
	SlidePickAnswer     SlideType = "pick_answer"
	SlideTypeAnswer     SlideType = "type_answer"
	SlideContent        SlideType = "content"
)

// QuizOption is one selectable answer on a quiz slide.
type QuizOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuizSettings configures a quiz slide. TimeLimitSeconds and Points feed the
// speed-bonus scoring; a zero Points defaults to 100 at scoring time.
type QuizSettings struct {
	Options          []QuizOption `json:"options"`
	CorrectOptionID  string       `json:"correctOptionId"`
	TimeLimitSeconds int          `json:"timeLimitSeconds"`
	Points           int          `json:"points"`
}

// QnaSettings configures a Q&A slide.
type QnaSettings struct {
	AllowMultiple bool `json:"allowMultiple"`
}

// GuessNumberSettings configures a guess-the-number slide.
type GuessNumberSettings struct {
	MinValue      int `json:"minValue"`
	MaxValue      int `json:"maxValue"`
	CorrectAnswer int `json:"correctAnswer"`
}

// OpenEndedSettings configures an open-ended slide.
type OpenEndedSettings struct {
	AllowVoting bool `json:"allowVoting"`
}

// LeaderboardSettings links a leaderboard slide to the quiz slide it ranks.
// An empty LinkedQuizSlideID marks the final whole-deck leaderboard.
type LeaderboardSettings struct {
	LinkedQuizSlideID string `json:"linkedQuizSlideId,omitempty"`
}

// Slide is one authored unit of a deck. Which settings fields are populated
// depends on Type; the rest stay zero.
type Slide struct {
	ID             string               `json:"id"`
	PresentationID string               `json:"presentationId"`
	Type           SlideType            `json:"type"`
	Question       string               `json:"question"`
	Order          int                  `json:"order"`
	Options        []string             `json:"options,omitempty"`
	MinValue       int                  `json:"minValue,omitempty"`
	MaxValue       int                  `json:"maxValue,omitempty"`
	MinLabel       string               `json:"minLabel,omitempty"`
	MaxLabel       string               `json:"maxLabel,omitempty"`
	Statements     []string             `json:"statements,omitempty"`
	RankingItems   []string             `json:"rankingItems,omitempty"`
	PointsItems    []string             `json:"pointsItems,omitempty"`
	GridXLabel     string               `json:"gridXLabel,omitempty"`
	GridYLabel     string               `json:"gridYLabel,omitempty"`
	MaxWords       int                  `json:"maxWordsPerParticipant,omitempty"`
	OpenEnded      *OpenEndedSettings   `json:"openEndedSettings,omitempty"`
	Qna            *QnaSettings         `json:"qnaSettings,omitempty"`
	GuessNumber    *GuessNumberSettings `json:"guessNumberSettings,omitempty"`
	Quiz           *QuizSettings        `json:"quizSettings,omitempty"`
	Leaderboard    *LeaderboardSettings `json:"leaderboardSettings,omitempty"`
}

// Deck is a presentation: ordered slides plus join metadata. Read-only to the
// live engine; authored elsewhere.
type Deck struct {
	ID         string  `json:"id"`
	OwnerID    string  `json:"ownerId"`
	Title      string  `json:"title"`
	AccessCode string  `json:"accessCode"`
	Slides     []Slide `json:"slides"`
}

// SlideByID returns the slide with the given id, if present.
func (d Deck) SlideByID(slideID string) (Slide, bool) {
	for _, s := range d.Slides {
		if s.ID == slideID {
			return s, true
		}
	}
	return Slide{}, false
}

// QuizSlides returns the deck's quiz slides in slide order.
func (d Deck) QuizSlides() []Slide {
	var out []Slide
	for _, s := range d.Slides {
		if s.Type == SlideQuiz {
			out = append(out, s)
		}
	}
	return out
}

// Response is one participant's recorded answer to one slide. Answer shape
// depends on the slide type: string, []any, or map[string]any as decoded from
// JSON. For word clouds a single Response accumulates all of a participant's
// words and SubmissionCount tracks how many submissions built it.
type Response struct {
	ID              string    `json:"id"`
	PresentationID  string    `json:"presentationId"`
	SlideID         string    `json:"slideId"`
	ParticipantID   string    `json:"participantId"`
	ParticipantName string    `json:"participantName"`
	Answer          any       `json:"answer"`
	SubmissionCount int       `json:"submissionCount,omitempty"`
	IsCorrect       bool      `json:"isCorrect,omitempty"`
	Score           int       `json:"score,omitempty"`
	Voters          []string  `json:"voters,omitempty"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

// HasVoter reports whether the given participant already upvoted this response.
func (r Response) HasVoter(participantID string) bool {
	for _, v := range r.Voters {
		if v == participantID {
			return true
		}
	}
	return false
}

// LeaderboardEntry is a ranked view of one participant.
type LeaderboardEntry struct {
	ParticipantID   string `json:"participantId"`
	ParticipantName string `json:"participantName"`
	Score           int    `json:"score"`
	Rank            int    `json:"rank"`
}

// Leaderboard is a ranked scoreboard, either for one quiz slide or the final
// cumulative ranking across all quiz slides in a deck.
type Leaderboard struct {
	SlideID string             `json:"slideId,omitempty"`
	Final   bool               `json:"final,omitempty"`
	Entries []LeaderboardEntry `json:"entries"`
}

// TextEntry is one free-text answer with its vote tally.
type TextEntry struct {
	ResponseID      string    `json:"responseId"`
	Text            string    `json:"text"`
	ParticipantName string    `json:"participantName"`
	SubmittedAt     time.Time `json:"submittedAt"`
	VoteCount       int       `json:"voteCount"`
}

// StatementSummary is the per-statement roll-up of a scales slide.
// Distribution keys are the stringified scale values.
type StatementSummary struct {
	Statement    string         `json:"statement"`
	Distribution map[string]int `json:"distribution"`
	Average      float64        `json:"average"`
}

// RankedItem is one item's total in a ranking summary.
type RankedItem struct {
	Item  string `json:"item"`
	Score int    `json:"score"`
}

// ItemPoints is one item's totals in a hundred-points summary.
type ItemPoints struct {
	Item    string  `json:"item"`
	Total   int     `json:"total"`
	Average float64 `json:"average"`
}

// Placement is one participant's coordinate on a grid or image slide.
type Placement struct {
	ParticipantName string  `json:"participantName"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
}

// Summary is the computed roll-up of all responses for a slide. Only the
// fields relevant to the slide's type are populated; the rest are omitted
// from the wire form.
type Summary struct {
	TotalResponses int                `json:"totalResponses"`
	VoteCounts     map[string]int     `json:"voteCounts,omitempty"`
	WordCounts     map[string]int     `json:"wordCounts,omitempty"`
	Entries        []TextEntry        `json:"entries,omitempty"`
	Statements     []StatementSummary `json:"statements,omitempty"`
	OverallAverage float64            `json:"overallAverage,omitempty"`
	Ranking        []RankedItem       `json:"ranking,omitempty"`
	PointTotals    []ItemPoints       `json:"pointTotals,omitempty"`
	Placements     []Placement        `json:"placements,omitempty"`
	Distribution   map[string]int     `json:"distribution,omitempty"`
	CorrectCount   int                `json:"correctCount,omitempty"`
	Accuracy       float64            `json:"accuracy,omitempty"`
	Leaderboard    *Leaderboard       `json:"leaderboard,omitempty"`
}

// Event is one outbound real-time message.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}
