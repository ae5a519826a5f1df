package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
)

func TestEvaluator_Evaluate(t *testing.T) {
	evaluator := NewEvaluator("/login", "/pricing")
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	contentResource := models.Resource{
		Path:                       "/content/42",
		RequiredRoles:              []string{models.RoleSubscriber},
		RequiresActiveSubscription: true,
	}
	creatorResource := models.Resource{
		Path:          "/studio",
		RequiredRoles: []string{models.RoleCreator},
	}
	profileResource := models.Resource{
		Path: "/profile",
	}

	activeSub := &models.Subscription{
		AccountUID:  "uid-1",
		Plan:        models.PlanMonthly,
		Status:      models.SubscriptionStatusActive,
		PeriodStart: now.Add(-10 * 24 * time.Hour),
		PeriodEnd:   now.Add(20 * 24 * time.Hour),
	}
	staleSub := &models.Subscription{
		AccountUID:  "uid-1",
		Plan:        models.PlanMonthly,
		Status:      models.SubscriptionStatusActive,
		PeriodStart: now.Add(-40 * 24 * time.Hour),
		PeriodEnd:   now.Add(-10 * 24 * time.Hour),
	}
	cancelledSub := &models.Subscription{
		AccountUID: "uid-1",
		Plan:       models.PlanMonthly,
		Status:     models.SubscriptionStatusCancelled,
		PeriodEnd:  now.Add(20 * 24 * time.Hour),
	}

	user := &models.Account{UID: "uid-1", Role: models.RoleUser}
	creator := &models.Account{UID: "uid-2", Role: models.RoleCreator}
	admin := &models.Account{UID: "uid-3", Role: models.RoleAdmin}

	tests := []struct {
		name     string
		account  *models.Account
		sub      *models.Subscription
		resource models.Resource
		want     Decision
	}{
		{
			name:     "гость перенаправляется на логин с возвратом",
			account:  nil,
			resource: contentResource,
			want: Decision{
				Effect: EffectRedirect,
				Reason: ReasonAuthenticationRequired,
				Target: "/login?next=%2Fcontent%2F42",
			},
		},
		{
			name:     "user с активной подпиской смотрит контент",
			account:  user,
			sub:      activeSub,
			resource: contentResource,
			want:     Decision{Effect: EffectAllow},
		},
		{
			name:     "user без подписки не получает выведенной роли subscriber",
			account:  user,
			sub:      nil,
			resource: contentResource,
			want: Decision{
				Effect: EffectDeny,
				Reason: ReasonInsufficientRole,
			},
		},
		{
			name:     "хранимый active с истекшим периодом не даёт доступа",
			account:  user,
			sub:      staleSub,
			resource: contentResource,
			want: Decision{
				Effect: EffectDeny,
				Reason: ReasonInsufficientRole,
			},
		},
		{
			name:     "отменённая подписка не даёт доступа",
			account:  user,
			sub:      cancelledSub,
			resource: contentResource,
			want: Decision{
				Effect: EffectDeny,
				Reason: ReasonInsufficientRole,
			},
		},
		{
			name:    "creator с подпиской проходит требование подписки",
			account: creator,
			sub:     activeSub,
			resource: models.Resource{
				Path:                       "/content/42",
				RequiredRoles:              []string{models.RoleSubscriber, models.RoleCreator},
				RequiresActiveSubscription: true,
			},
			want: Decision{Effect: EffectAllow},
		},
		{
			name:    "creator без подписки не проходит на платный контент",
			account: creator,
			sub:     nil,
			resource: models.Resource{
				Path:                       "/content/42",
				RequiredRoles:              []string{models.RoleSubscriber, models.RoleCreator},
				RequiresActiveSubscription: true,
			},
			want: Decision{
				Effect: EffectDeny,
				Reason: ReasonSubscriptionRequired,
				Target: "/pricing",
			},
		},
		{
			name:     "подписчик не проходит на маршруты авторов",
			account:  user,
			sub:      activeSub,
			resource: creatorResource,
			want: Decision{
				Effect: EffectDeny,
				Reason: ReasonInsufficientRole,
			},
		},
		{
			name:     "creator проходит на маршруты авторов",
			account:  creator,
			sub:      nil,
			resource: creatorResource,
			want:     Decision{Effect: EffectAllow},
		},
		{
			name:     "admin проходит без подписки и роли",
			account:  admin,
			sub:      nil,
			resource: contentResource,
			want:     Decision{Effect: EffectAllow},
		},
		{
			name:     "пустой список ролей пропускает любого авторизованного",
			account:  user,
			sub:      nil,
			resource: profileResource,
			want:     Decision{Effect: EffectAllow},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evaluator.Evaluate(tt.account, tt.sub, tt.resource, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluator_EvaluateIsDeterministic(t *testing.T) {
	evaluator := NewEvaluator("/login", "/pricing")
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	account := &models.Account{UID: "uid-1", Role: models.RoleUser}
	sub := &models.Subscription{
		Status:    models.SubscriptionStatusActive,
		PeriodEnd: now.Add(time.Hour),
	}
	resource := models.Resource{
		Path:                       "/content/1",
		RequiredRoles:              []string{models.RoleSubscriber},
		RequiresActiveSubscription: true,
	}

	first := evaluator.Evaluate(account, sub, resource, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, evaluator.Evaluate(account, sub, resource, now))
	}
}
