package mailer

import "fmt"

// Message catalogue for the registry's notifications. Kept together so the
// wording stays consistent across workflows.

func StatusSubject(estado string) string {
	return "Registro Municipal - Solicitud " + estado
}

func ApprovalMessage(name string) string {
	return fmt.Sprintf("Estimado/a %s,\n\nSu solicitud ha sido aprobada. Ya puede acceder a los servicios del registro municipal.\n\nSaludos cordiales.", name)
}

func RejectionMessage(name, reason string) string {
	return fmt.Sprintf("Estimado/a %s,\n\nSu solicitud ha sido rechazada.\nMotivo: %s\n\nSaludos cordiales.", name, reason)
}

func RegistrationReceivedSubject() string {
	return "Registro Municipal - Solicitud recibida"
}

func RegistrationReceivedMessage(name string) string {
	return fmt.Sprintf("Estimado/a %s,\n\nHemos recibido su solicitud de registro. Un administrador revisará sus documentos y le notificaremos la decisión.\n\nSaludos cordiales.", name)
}

func RecoverySubject() string {
	return "Registro Municipal - Recuperación de contraseña"
}

func RecoveryOtpMessage(username, otp string) string {
	return fmt.Sprintf("Hola %s,\n\nSu código de recuperación es: %s\n\nSi usted no solicitó este código, ignore este mensaje.", username, otp)
}

func PasswordChangedSubject() string {
	return "Registro Municipal - Contraseña actualizada"
}

func PasswordChangedMessage(username string) string {
	return fmt.Sprintf("Hola %s,\n\nSu contraseña fue actualizada correctamente.", username)
}

func DeletionRequestedSubject() string {
	return "Solicitud de eliminación recibida"
}

func DeletionRequestedMessage(byAdmin bool, businessName, motive, justification string) string {
	intro := "Tu solicitud ha sido registrada"
	if byAdmin {
		intro = "Un administrador inició una solicitud"
	}
	return fmt.Sprintf("%s para el negocio %q.\nMotivo: %s\nJustificación: %s", intro, businessName, motive, justification)
}

func DeletionDecidedSubject(approved bool) string {
	if approved {
		return "Eliminación de negocio aprobada"
	}
	return "Solicitud de eliminación rechazada"
}

func DeletionDecidedMessage(approved bool, businessName, motive, justification, note string) string {
	verb := "Se rechazó"
	if approved {
		verb = "Se aprobó"
	}
	msg := fmt.Sprintf("%s la eliminación del negocio %q.\nMotivo original: %s\nJustificación original: %s", verb, businessName, motive, justification)
	if note != "" {
		msg += "\nObservación del administrador: " + note
	}
	return msg
}
