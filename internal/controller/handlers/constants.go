package handlers

// maxRedispatch лимит переходов между обработчиками на одно сообщение
const maxRedispatch = 4

// Тексты сообщений
const (
	msgMenuTemplate = "Olá %s, aqui é o %s e estou em horário de trabalho.\nO que deseja?\n\n" +
		"1. Agendar horário (aqui você verá meus horários disponíveis)\n" +
		"2. Cancelar horário\n" +
		"3. Alterar horário\n" +
		"4. Falar pessoalmente\n" +
		"5. Ver serviços e forma de pagamento"
	msgInvalidOptionPrefix = "Opção inválida. "
	msgMenuReminder        = "Olá! Por favor, escolha uma opção do menu que enviei, ou digite 'menu' para vê-lo novamente."

	msgServicePrompt  = "Para agendar, digite o número abaixo. Qual serviço você gostaria? Seguem os serviços realizados:"
	msgServiceInvalid = "Serviço inválido. Por favor, escolha um dos números da lista:"

	msgDaysHeader = "Ótimo! Para %s, temos os seguintes dias disponíveis:"
	msgDaysFooter = "Por favor, digite o número do dia desejado:"
	msgDaysNone   = "Desculpe, não há dias disponíveis para agendamento no momento. Digite 'menu' para ver outras opções."
	msgDayInvalid = "Opção de dia inválida. Por favor, escolha um dos números da lista:"
	msgDayNoSlots = "Desculpe, não há horários disponíveis para %s. Por favor, escolha outro dia."

	msgTimesHeader  = "Ótimo! Para %s, temos os seguintes horários disponíveis:"
	msgTimesFooter  = "Por favor, digite o número do horário desejado."
	msgTimeInvalid  = "Opção de horário inválida. Por favor, escolha um dos números da lista."
	msgTimeStale    = "Desculpe, ocorreu um erro ao processar sua escolha de horário. Por favor, digite 'menu' para recomeçar."
	msgSlotTaken    = "Desculpe %s, o horário %s de %s para %s acabou de ser reservado."
	msgSlotRetry    = "Por favor, tente escolher outro horário ou dia. Digite 'menu' para ver as opções de serviço novamente."
	msgConfirmation = "Agendamento confirmado para %s no dia %s às %s com %s. Obrigado, %s!"
	msgPixHint      = "Para pagamento via PIX, use a chave: %s"
	msgBookingError = "Não consegui confirmar seu agendamento: %s Por favor, tente novamente ou digite 'menu'."

	msgNoAppointments = "Você não possui agendamentos ativos."
	msgCancelHeader   = "Você tem %d %s. Escolha o número do agendamento que deseja cancelar:"
	msgCancelInvalid  = "Opção inválida. Digite o número correto do agendamento a ser cancelado."
	msgCancelGone     = "Esse agendamento não foi encontrado. Vou listar seus agendamentos novamente."
	msgCancelDone     = "Agendamento cancelado: %s em %s às %s."

	msgReschedule   = "Funcionalidade de alteração de horário em breve disponível."
	msgSpeakToHuman = "Entendido. Para falar pessoalmente, por favor, aguarde. Em breve um de nossos atendentes entrará em contato."
	msgServicesInfo = "Serviços realizados:"
	msgPixInfo      = "Pagamento via PIX, chave: %s"

	msgDefault = "Desculpe, não entendi. Digite \"oi\" ou \"menu\" para ver as opções."
	// MsgApology роутер отправляет при неожиданной ошибке обработчика
	MsgApology       = "Ocorreu um erro ao processar sua solicitação. Por favor, tente novamente."
	msgAIUnavailable = "No momento não consigo responder perguntas livres. Digite 'menu' para ver as opções."
)
