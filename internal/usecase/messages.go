package usecase

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rodrigolyusei/mynextflight/internal/domain"
)

const (
	helpText = "✈️ MyNextFlight\n\n" +
		"Configure alertas de preços de passagens aéreas e receba notificações quando os preços caírem!\n\n" +
		"Comandos disponíveis:\n" +
		"1️⃣ /lista - Lista das notificações cadastradas\n" +
		"2️⃣ /adiciona - Cadastra uma nova notificação\n" +
		"3️⃣ /remove - Remove uma notificação existente\n"

	emptyListText = "Você não tem alertas ativos."

	addUsageText = "⚠️ Formato inválido!\n" +
		"Use: /adiciona ORIGEM DESTINO DATA PRECO\n" +
		"Ex: /adiciona SAO JFK 2025-12-25 3500"

	invalidPriceText = "Erro: O preço deve ser um número (ex: 3500.50)."

	removeUsageText = "⚠️ Formato inválido!\n" +
		"Uso: /remove ID_DO_ALERTA (veja o ID no comando /lista)"

	removeFailedText = "Ocorreu um erro ao tentar remover."

	unknownCommandText = "Comando não reconhecido.\nUse /ajuda para listar os comandos!"

	listSeparator = "---------------------\n"
)

func listText(alerts []domain.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Seus Alertas (%d/%d):\n\n", len(alerts), domain.MaxAlertsPerOwner)
	for _, a := range alerts {
		fmt.Fprintf(&b, "🆔 %s\n", a.AlertID)
		fmt.Fprintf(&b, "✈️ %s ➔ %s\n", a.Origin, a.Destination)
		fmt.Fprintf(&b, "📅 %s\n", a.Date)
		fmt.Fprintf(&b, "💰 < R$ %s\n", a.MaxPrice.String())
		b.WriteString(listSeparator)
	}
	return b.String()
}

func capReachedText(current int) string {
	return fmt.Sprintf("🚫 Limite Atingido (%d/%d)\n"+
		"Você já possui o máximo de alertas ativos.\n"+
		"Use /lista para verificar as alertas e /remove para liberar espaço.", current, domain.MaxAlertsPerOwner)
}

// createdText echoes the price as the user typed it, so "3500.50" keeps its
// trailing zero.
func createdText(a domain.Alert, rawPrice string) string {
	return fmt.Sprintf("✅ Alerta criado! ID: %s\nMonitorando %s->%s em %s por menos de R$ %s.",
		a.AlertID, a.Origin, a.Destination, a.Date, rawPrice)
}

func removedText(a domain.Alert) string {
	return fmt.Sprintf("🗑️ Alerta removido! ID: %s\nO alerta de %s ➔ %s foi removido.", a.AlertID, a.Origin, a.Destination)
}

func notFoundText(alertID string) string {
	return fmt.Sprintf("⚠️ Não encontrei nenhum alerta com o ID `%s`.\nUse /lista para ver os IDs corretos.", alertID)
}

func fareAlertText(a domain.Alert, fare domain.Fare) string {
	msg := fmt.Sprintf("✈️ Alerta! Voo para %s encontrado por R$ %s!\nData: %s", a.Destination, formatPrice(fare.Price), a.Date)
	if fare.Link != "" {
		msg += "\nLink: " + fare.Link
	}
	return msg
}

func formatPrice(p decimal.Decimal) string {
	return p.StringFixed(2)
}
