package i18n

var messagesPTBR = map[string]string{
	KeyTargetMissingHealth:     "%s não tem trilha de pontos de vida e foi ignorado.",
	KeyTargetMissingThresholds: "%s não tem limiares de dano e foi ignorado.",
	KeyTargetSaturated:         "%s não pode receber mais dano.",
	KeyTargetUnharmed:          "%s não tem dano para curar.",
	KeyTargetPersistFailed:     "Não foi possível atualizar %s.",
	KeyDamageApplied:           "%s marca %d pontos de vida (%s).",
	KeyHealingApplied:          "%s limpa %d pontos de vida.",
	KeyDirectDamageApplied:     "%s marca %d pontos de vida.",
	KeyNoTargetsAffected:       "Nenhum alvo foi afetado.",
	KeyArmorByNameDeprecated:   "Espaços de armadura de %s foram encontrados pelo nome; nomes não são únicos.",
	KeyUndoResolvedByName:      "Desfazer encontrou %s pelo nome; nomes não são únicos.",
	KeyUndoUnresolved:          "Não foi possível encontrar %s para desfazer.",
	KeyUndoRestored:            "%d alvos restaurados.",
	KeyUndoNothingRestored:     "Nada pôde ser restaurado.",

	KeyErrorUnknown:             "Algo deu errado.",
	KeyErrorNotFound:            "O registro solicitado não foi encontrado.",
	KeyErrorDiceMissing:         "Pelo menos um dado é necessário.",
	KeyErrorDiceInvalidSpec:     "Os dados precisam de faces e quantidade positivas.",
	KeyErrorDiceInvalidPool:     "Dados de vantagem e desvantagem devem ser d4, d6, d8 ou d10 com quantidades não negativas.",
	KeyErrorDiceInvalidFace:     "Esse tamanho de dado não é permitido aqui.",
	KeyErrorSeedOutOfRange:      "A semente da rolagem está fora do intervalo.",
	KeyErrorInvalidAmount:       "A quantidade deve ser um número inteiro positivo.",
	KeyErrorInvalidArmorRequest: "Espaços de armadura devem ser um número não negativo ou um mapa por alvo.",
	KeyErrorNoTargets:           "Selecione ou mire em pelo menos um token.",
	KeyErrorPermissionDenied:    "Você não tem permissão para alterar esse alvo.",
	KeyErrorUndoNotFound:        "Essa ação já foi desfeita ou nunca existiu.",
	KeyErrorInvalidFilter:       "A expressão de filtro é inválida.",
}
