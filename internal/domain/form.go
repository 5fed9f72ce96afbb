package domain

import "time"

type QuestionKind string

const (
	QuestionSingleChoice QuestionKind = "single_choice"
	QuestionMultiChoice  QuestionKind = "multi_choice"
	QuestionText         QuestionKind = "text"
	QuestionScale        QuestionKind = "scale"
)

// Form is a dynamic questionnaire, used for the onboarding interview.
type Form struct {
	ID         string         `json:"id" validate:"required"`
	Title      string         `json:"title" validate:"required"`
	Categories []FormCategory `json:"categories,omitempty" validate:"dive"`
}

type FormCategory struct {
	ID        string         `json:"id" validate:"required"`
	Title     string         `json:"title" validate:"required"`
	Position  int            `json:"position" validate:"gte=0"`
	Questions []FormQuestion `json:"questions,omitempty" validate:"dive"`
}

type FormQuestion struct {
	ID       string               `json:"id" validate:"required"`
	Text     string               `json:"text" validate:"required"`
	Kind     QuestionKind         `json:"kind" validate:"required,oneof=single_choice multi_choice text scale"`
	Required bool                 `json:"required"`
	Options  []FormQuestionOption `json:"options,omitempty" validate:"dive"`
}

type FormQuestionOption struct {
	ID    string `json:"id" validate:"required"`
	Label string `json:"label" validate:"required"`
	Value string `json:"value"`
}

type UserFormAnswer struct {
	ID         string    `json:"id,omitempty"`
	FormID     string    `json:"form_id" validate:"required"`
	QuestionID string    `json:"question_id" validate:"required"`
	OptionIDs  []string  `json:"option_ids,omitempty"`
	Text       string    `json:"text,omitempty" validate:"omitempty,max=2000"`
	AnsweredAt time.Time `json:"answered_at,omitempty"`
}

type SubmitAnswersRequest struct {
	FormID  string           `json:"-" validate:"required"`
	Answers []UserFormAnswer `json:"answers" validate:"required,min=1,dive"`
}

// Questions flattens every question across categories in category order.
func (f Form) Questions() []FormQuestion {
	var out []FormQuestion
	for _, category := range f.Categories {
		out = append(out, category.Questions...)
	}
	return out
}
