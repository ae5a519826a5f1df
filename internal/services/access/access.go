// Package access реализует вычислитель решений о доступе: чистую функцию
// над уже загруженными учётной записью и подпиской. Вычислитель не ходит
// в базу и ничего не мутирует, поэтому безопасен для параллельных запросов
// и тестируется без моков сети.
package access

import (
	"net/url"
	"time"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
)

// Effect — исход проверки доступа.
type Effect string

const (
	// EffectAllow — доступ разрешён.
	EffectAllow Effect = "allow"
	// EffectDeny — доступ запрещён, Reason содержит машиночитаемую причину.
	EffectDeny Effect = "deny"
	// EffectRedirect — пользователь перенаправляется, Target содержит адрес.
	EffectRedirect Effect = "redirect"
)

// Машиночитаемые причины отказа. UI по ним показывает конкретный
// следующий шаг, а не общий 403.
const (
	ReasonAuthenticationRequired = "authentication_required"
	ReasonInsufficientRole       = "insufficient_role"
	ReasonSubscriptionRequired   = "subscription_required"
)

// Decision — решение вычислителя по одному запросу доступа.
type Decision struct {
	Effect Effect `json:"effect"`
	Reason string `json:"reason,omitempty"`
	Target string `json:"target,omitempty"`
}

// Evaluator вычисляет решения о доступе. Содержит только адреса
// перенаправлений, состояния не хранит.
type Evaluator struct {
	loginPath   string
	pricingPath string
}

// NewEvaluator создаёт вычислитель с адресами страниц логина и тарифов.
func NewEvaluator(loginPath, pricingPath string) *Evaluator {
	return &Evaluator{
		loginPath:   loginPath,
		pricingPath: pricingPath,
	}
}

// Evaluate принимает учётную запись (nil — гость), её подписку (nil — нет
// подписки) и ресурс, возвращает решение. Одинаковые входы всегда дают
// одинаковое решение.
//
// Порядок проверок: аутентификация, роль, подписка. Роль admin
// удовлетворяет любому требованию ролей и требованию подписки — это
// единственная точка, где иерархия ролей сворачивается в superset-проверку.
// Роль и подписка — ортогональные оси: подписчик не проходит на маршруты
// авторов, автор без подписки не проходит на платный контент.
func (e *Evaluator) Evaluate(account *models.Account, sub *models.Subscription, resource models.Resource, now time.Time) Decision {
	if account == nil {
		return Decision{
			Effect: EffectRedirect,
			Reason: ReasonAuthenticationRequired,
			Target: e.loginTarget(resource.Path),
		}
	}

	if account.Role == models.RoleAdmin {
		return Decision{Effect: EffectAllow}
	}

	if !roleSatisfied(account, sub, resource.RequiredRoles, now) {
		return Decision{
			Effect: EffectDeny,
			Reason: ReasonInsufficientRole,
		}
	}

	if resource.RequiresActiveSubscription {
		if sub.EffectiveStatus(now) != models.SubscriptionStatusActive {
			return Decision{
				Effect: EffectDeny,
				Reason: ReasonSubscriptionRequired,
				Target: e.pricingPath,
			}
		}
	}

	return Decision{Effect: EffectAllow}
}

// roleSatisfied проверяет попадание в требуемый набор ролей. Роль
// subscriber не хранится: она выводится из эффективно активной подписки,
// поэтому требование subscriber удовлетворяется любой учётной записью
// с действующим оплаченным периодом.
func roleSatisfied(account *models.Account, sub *models.Subscription, required []string, now time.Time) bool {
	if len(required) == 0 {
		return true
	}
	for _, role := range required {
		if role == account.Role {
			return true
		}
		if role == models.RoleSubscriber && sub.EffectiveStatus(now) == models.SubscriptionStatusActive {
			return true
		}
	}
	return false
}

func (e *Evaluator) loginTarget(path string) string {
	if path == "" {
		return e.loginPath
	}
	return e.loginPath + "?next=" + url.QueryEscape(path)
}
