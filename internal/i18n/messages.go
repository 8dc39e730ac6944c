package i18n

const (
	MsgInternal           = "error.internal"
	MsgInvalidInput       = "error.invalid_input"
	MsgNotFound           = "error.not_found"
	MsgConflict           = "error.conflict"
	MsgUnauthorized       = "error.unauthorized"
	MsgForbidden          = "error.forbidden"
	MsgTooManyRequests    = "error.too_many_requests"
	MsgInvalidCredentials = "auth.invalid_credentials"
	MsgEmailTaken         = "auth.email_taken"
	MsgInvalidQuantity    = "cart.invalid_quantity"
	MsgInvalidProduct     = "cart.invalid_product"
	MsgEmptyCart          = "checkout.empty_cart"
	MsgNotStarted         = "checkout.not_started"
	MsgWrongStep          = "checkout.wrong_step"
	MsgInvalidAddress     = "checkout.invalid_address"
	MsgInvalidPayment     = "checkout.invalid_payment"
	MsgProcessing         = "checkout.processing"
	MsgOrderFailed        = "checkout.order_failed"
	MsgCartNotCleared     = "checkout.cart_not_cleared"
	MsgInvalidState       = "order.invalid_state"
	MsgBackendUnavailable = "backend.unavailable"
)

var messages = map[string]struct{ es, en string }{
	MsgInternal:           {"Error interno del servidor", "Internal server error"},
	MsgInvalidInput:       {"Datos inválidos", "Invalid input"},
	MsgNotFound:           {"Recurso no encontrado", "Resource not found"},
	MsgConflict:           {"El recurso ya existe", "Resource already exists"},
	MsgUnauthorized:       {"Sesión inválida o expirada", "Invalid or expired session"},
	MsgForbidden:          {"No tiene permisos para esta acción", "You are not allowed to do this"},
	MsgTooManyRequests:    {"Demasiadas solicitudes, intente de nuevo en un momento", "Too many requests, try again shortly"},
	MsgInvalidCredentials: {"Correo o contraseña incorrectos", "Invalid email or password"},
	MsgEmailTaken:         {"El email ya está registrado", "Email is already registered"},
	MsgInvalidQuantity:    {"La cantidad debe ser mayor a cero", "Quantity must be greater than zero"},
	MsgInvalidProduct:     {"El producto no se puede agregar al carrito", "Product cannot be added to the cart"},
	MsgEmptyCart:          {"El carrito está vacío", "Your cart is empty"},
	MsgNotStarted:         {"El checkout no ha iniciado", "Checkout has not started"},
	MsgWrongStep:          {"Acción no permitida en este paso del checkout", "Action not allowed at this checkout step"},
	MsgInvalidAddress:     {"Complete todos los campos de la dirección de envío", "Fill in every shipping address field"},
	MsgInvalidPayment:     {"Complete todos los datos de pago", "Fill in every payment field"},
	MsgProcessing:         {"La orden ya se está procesando", "The order is already being processed"},
	MsgOrderFailed:        {"Error al procesar la orden", "The order could not be processed"},
	MsgCartNotCleared:     {"La orden se creó pero el carrito no se pudo vaciar", "The order was created but the cart could not be emptied"},
	MsgInvalidState:       {"La orden no admite este cambio de estado", "The order does not allow this status change"},
	MsgBackendUnavailable: {"Servicio no disponible", "Service unavailable"},
}
